package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/train"
	"github.com/urfave/cli/v3"
)

type classifierResult struct {
	Config  train.ClassifierConfig `json:"config"`
	History []train.EpochStats     `json:"history"`
	Test    train.EvalStats        `json:"test"`
}

func fitClassifierCmd() *cli.Command {
	cfg := train.DefaultClassifierConfig()

	return &cli.Command{
		Name:  "fit-classifier",
		Usage: "Train a softmax classifier on synthetic clusters and report test loss and accuracy",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "classes",
				Value:       cfg.Classes,
				Destination: &cfg.Classes,
			},
			&cli.IntFlag{
				Name:        "features",
				Value:       cfg.Features,
				Destination: &cfg.Features,
			},
			&cli.Float64Flag{
				Name:        "noise",
				Usage:       "per-feature Gaussian noise around each class centre",
				Value:       cfg.Noise,
				Destination: &cfg.Noise,
			},
			&cli.IntFlag{
				Name:        "train-samples",
				Value:       cfg.TrainSamples,
				Destination: &cfg.TrainSamples,
			},
			&cli.IntFlag{
				Name:        "test-samples",
				Value:       cfg.TestSamples,
				Destination: &cfg.TestSamples,
			},
			&cli.IntFlag{
				Name:        "epochs",
				Aliases:     []string{"e"},
				Value:       cfg.Epochs,
				Destination: &cfg.Epochs,
			},
			&cli.IntFlag{
				Name:        "batch-size",
				Value:       cfg.BatchSize,
				Destination: &cfg.BatchSize,
			},
			&cli.Float64Flag{
				Name:        "lr",
				Usage:       "learning rate",
				Value:       cfg.LearningRate,
				Destination: &cfg.LearningRate,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Value:       cfg.Seed,
				Destination: &cfg.Seed,
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			_, history, eval, err := train.FitClassifier(ctx, cfg, log)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(classifierResult{Config: cfg, History: history, Test: eval})
			}
			final := history[len(history)-1]
			fmt.Printf("train loss %.4f after %d epochs\n", final.MeanLoss, len(history))
			fmt.Printf("test: loss=%.4f accuracy=%.3f (%d samples)\n", eval.Loss, eval.Accuracy, eval.Samples)
			return nil
		},
	}
}
