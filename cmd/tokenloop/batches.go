package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/random"
	"github.com/urfave/cli/v3"
)

type batchLine struct {
	Batch   int   `json:"batch"`
	Indices []int `json:"indices"`
}

func batchesCmd() *cli.Command {
	var (
		n         int
		batchSize int
		seed      int64
		shards    int
		shard     int
	)

	return &cli.Command{
		Name:  "batches",
		Usage: "Print one shuffled epoch of minibatch indices",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "samples",
				Aliases:     []string{"n"},
				Usage:       "number of samples in the partition",
				Value:       10,
				Destination: &n,
			},
			&cli.IntFlag{
				Name:        "batch-size",
				Aliases:     []string{"b"},
				Usage:       "minibatch size",
				Value:       4,
				Destination: &batchSize,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Aliases:     []string{"s"},
				Usage:       "shuffle seed",
				Destination: &seed,
			},
			&cli.IntFlag{
				Name:        "shards",
				Usage:       "split the partition into this many contiguous shards",
				Value:       1,
				Destination: &shards,
			},
			&cli.IntFlag{
				Name:        "shard",
				Usage:       "shard to iterate (0-based)",
				Destination: &shard,
			},
			jsonFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			lines, err := epochBatches(n, batchSize, seed, shard, shards)
			if err != nil {
				return err
			}
			log.Debug("epoch", "samples", n, "shard", shard, "batches", len(lines), "seed", seed)

			if jsonOutput {
				return printJSON(lines)
			}
			for _, l := range lines {
				fmt.Printf("batch %d: %v\n", l.Batch, l.Indices)
			}
			return nil
		},
	}
}

// epochBatches lists one shuffled epoch over the ids of shard of [0, n).
func epochBatches(n, batchSize int, seed int64, shard, shards int) ([]batchLine, error) {
	if n < 0 {
		return nil, errkind.NewConfig("samples", "must be >= 0, got %d", n)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	p, err := batch.Partition[int, int]{Inputs: ids, Targets: ids}.Shard(shard, shards)
	if err != nil {
		return nil, err
	}
	it, err := batch.New(p, batchSize, random.NewSplitMix64(uint64(seed)))
	if err != nil {
		return nil, err
	}

	lines := make([]batchLine, 0, it.Batches())
	for i := 0; ; i++ {
		b, ok := it.Next()
		if !ok {
			break
		}
		lines = append(lines, batchLine{Batch: i, Indices: b.Inputs})
	}
	return lines, nil
}
