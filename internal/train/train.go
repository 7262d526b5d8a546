// Package train drives epochs of minibatch updates. The update itself is a
// caller-supplied step; this package only owns shuffling and bookkeeping.
package train

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
)

// StepFunc applies one update on a batch and returns the batch's mean loss.
type StepFunc[X, Y any] func(ctx context.Context, inputs []X, targets []Y) (float64, error)

type Loop struct {
	Epochs    int
	BatchSize int
	// Seed for epoch e is Seed+e, so every epoch reshuffles.
	Seed int64
	Log  logger.Logger
}

type EpochStats struct {
	Epoch    int     `json:"epoch"`
	Batches  int     `json:"batches"`
	Samples  int     `json:"samples"`
	MeanLoss float64 `json:"mean_loss"`
}

// Run executes loop.Epochs epochs over p. It stops at the first step error.
func Run[X, Y any](ctx context.Context, p batch.Partition[X, Y], loop Loop, step StepFunc[X, Y]) ([]EpochStats, error) {
	if loop.Epochs < 1 {
		return nil, errkind.NewConfig("epochs", "must be >= 1, got %d", loop.Epochs)
	}
	if step == nil {
		return nil, fmt.Errorf("train: step function is required")
	}
	log := loop.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	log = log.With("component", "train")

	history := make([]EpochStats, 0, loop.Epochs)
	for epoch := range loop.Epochs {
		batches, err := batch.TrainEpoch(p, loop.BatchSize, loop.Seed+int64(epoch))
		if err != nil {
			return history, err
		}

		st := EpochStats{Epoch: epoch}
		var lossSum float64
		for xs, ys := range batches {
			if err := ctx.Err(); err != nil {
				return history, err
			}
			loss, err := step(ctx, xs, ys)
			if err != nil {
				return history, fmt.Errorf("epoch %d batch %d: %w", epoch, st.Batches, err)
			}
			lossSum += loss * float64(len(xs))
			st.Samples += len(xs)
			st.Batches++
		}
		if st.Samples > 0 {
			st.MeanLoss = lossSum / float64(st.Samples)
		}
		history = append(history, st)
		log.Info("epoch done", "epoch", epoch, "batches", st.Batches, "loss", st.MeanLoss)
	}
	return history, nil
}
