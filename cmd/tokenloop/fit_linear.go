package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/train"
	"github.com/urfave/cli/v3"
)

type fitResult struct {
	Target  train.Linear       `json:"target"`
	Fitted  train.Linear       `json:"fitted"`
	History []train.EpochStats `json:"history"`
}

func fitLinearCmd() *cli.Command {
	cfg := train.DefaultLinearConfig()

	return &cli.Command{
		Name:  "fit-linear",
		Usage: "Fit y = m*x + b with minibatch SGD on synthetic data",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:        "m",
				Usage:       "target slope",
				Value:       cfg.Target.M,
				Destination: &cfg.Target.M,
			},
			&cli.Float64Flag{
				Name:        "b",
				Usage:       "target intercept",
				Value:       cfg.Target.B,
				Destination: &cfg.Target.B,
			},
			&cli.IntFlag{
				Name:        "samples",
				Usage:       "synthetic sample count",
				Value:       cfg.Samples,
				Destination: &cfg.Samples,
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

			fitted, history, err := train.FitLinear(ctx, cfg, log)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(fitResult{Target: cfg.Target, Fitted: fitted, History: history})
			}
			final := history[len(history)-1]
			fmt.Printf("target: m=%.4f b=%.4f\n", cfg.Target.M, cfg.Target.B)
			fmt.Printf("fitted: m=%.4f b=%.4f (loss %.6f after %d epochs)\n", fitted.M, fitted.B, final.MeanLoss, len(history))
			return nil
		},
	}
}
