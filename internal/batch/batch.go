// Package batch partitions an indexed dataset into shuffled minibatches for
// one training epoch.
package batch

import (
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/random"
)

// Partition pairs aligned inputs and targets. Sample i is (Inputs[i], Targets[i]).
type Partition[X, Y any] struct {
	Inputs  []X
	Targets []Y
}

func (p Partition[X, Y]) Len() int {
	return len(p.Inputs)
}

func (p Partition[X, Y]) Validate() error {
	if len(p.Inputs) != len(p.Targets) {
		return errkind.NewConfig("partition", "%d inputs but %d targets", len(p.Inputs), len(p.Targets))
	}
	return nil
}

// Shard returns the i-th of n contiguous, disjoint slices of the partition.
// The shards together cover every sample once. The data is not copied.
func (p Partition[X, Y]) Shard(i, n int) (Partition[X, Y], error) {
	if n < 1 || i < 0 || i >= n {
		return Partition[X, Y]{}, errkind.NewConfig("shard", "index %d out of range for %d shards", i, n)
	}
	lo := i * p.Len() / n
	hi := (i + 1) * p.Len() / n
	return Partition[X, Y]{
		Inputs:  p.Inputs[lo:hi:hi],
		Targets: p.Targets[lo:hi:hi],
	}, nil
}

// Batch is one minibatch. Indices are the positions gathered from the
// partition, in permuted order.
type Batch[X, Y any] struct {
	Indices []int
	Inputs  []X
	Targets []Y
}

func (b Batch[X, Y]) Len() int {
	return len(b.Indices)
}

// Iterator walks one epoch. The permutation is fixed at construction and the
// iterator cannot be rewound; build a new one per epoch. Not safe for
// concurrent use.
type Iterator[X, Y any] struct {
	data      Partition[X, Y]
	perm      []int
	batchSize int
	cursor    int
}

// New shuffles [0, N) with src and returns an iterator yielding batches of
// batchSize samples. The last batch is shorter when N is not a multiple of
// batchSize.
func New[X, Y any](p Partition[X, Y], batchSize int, src rand.Source) (*Iterator[X, Y], error) {
	if batchSize < 1 {
		return nil, errkind.NewConfig("batch_size", "must be >= 1, got %d", batchSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("batch iterator requires a random source")
	}

	n := p.Len()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(src)
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	return &Iterator[X, Y]{
		data:      p,
		perm:      perm,
		batchSize: batchSize,
	}, nil
}

// Next returns the next batch, or false once the epoch is exhausted.
func (it *Iterator[X, Y]) Next() (Batch[X, Y], bool) {
	n := len(it.perm)
	if it.cursor >= n {
		return Batch[X, Y]{}, false
	}
	end := min(it.cursor+it.batchSize, n)
	idx := it.perm[it.cursor:end:end]
	it.cursor += it.batchSize

	b := Batch[X, Y]{
		Indices: idx,
		Inputs:  make([]X, len(idx)),
		Targets: make([]Y, len(idx)),
	}
	for i, j := range idx {
		b.Inputs[i] = it.data.Inputs[j]
		b.Targets[i] = it.data.Targets[j]
	}
	return b, true
}

// Batches reports how many batches the full epoch yields.
func (it *Iterator[X, Y]) Batches() int {
	return (len(it.perm) + it.batchSize - 1) / it.batchSize
}

// Permutation returns a copy of the epoch's index order.
func (it *Iterator[X, Y]) Permutation() []int {
	return append([]int(nil), it.perm...)
}

// All yields the remaining batches as (inputs, targets) pairs.
func (it *Iterator[X, Y]) All() iter.Seq2[[]X, []Y] {
	return func(yield func([]X, []Y) bool) {
		for {
			b, ok := it.Next()
			if !ok || !yield(b.Inputs, b.Targets) {
				return
			}
		}
	}
}

// TrainEpoch shuffles p with a SplitMix64 seeded from seed and returns the
// lazy batch sequence for one epoch.
func TrainEpoch[X, Y any](p Partition[X, Y], batchSize int, seed int64) (iter.Seq2[[]X, []Y], error) {
	it, err := New(p, batchSize, random.NewSplitMix64(uint64(seed)))
	if err != nil {
		return nil, err
	}
	return it.All(), nil
}
