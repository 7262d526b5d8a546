package batch

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/random"
)

func indexPartition(n int) Partition[int, int] {
	p := Partition[int, int]{Inputs: make([]int, n), Targets: make([]int, n)}
	for i := range n {
		p.Inputs[i] = i
		p.Targets[i] = 1000 + i
	}
	return p
}

func drain[X, Y any](t *testing.T, it *Iterator[X, Y]) []Batch[X, Y] {
	t.Helper()
	var out []Batch[X, Y]
	for {
		b, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestBatchSizesTenByFour(t *testing.T) {
	t.Parallel()

	it, err := New(indexPartition(10), 4, random.NewSplitMix64(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if it.Batches() != 3 {
		t.Fatalf("Batches() = %d, want 3", it.Batches())
	}
	var sizes []int
	for _, b := range drain(t, it) {
		sizes = append(sizes, b.Len())
	}
	if want := []int{4, 4, 2}; !reflect.DeepEqual(sizes, want) {
		t.Fatalf("sizes = %v, want %v", sizes, want)
	}
}

func TestBatchesPartitionEveryIndexOnce(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 7, 10, 16, 33} {
		for _, bs := range []int{1, 3, 4, 16, 50} {
			it, err := New(indexPartition(n), bs, random.NewSplitMix64(uint64(n*100+bs)))
			if err != nil {
				t.Fatalf("New(%d, %d): %v", n, bs, err)
			}
			batches := drain(t, it)
			seen := make([]int, n)
			for i, b := range batches {
				want := bs
				if i == len(batches)-1 && n%bs != 0 {
					want = n % bs
				}
				if b.Len() != want {
					t.Fatalf("N=%d bs=%d batch %d: size %d, want %d", n, bs, i, b.Len(), want)
				}
				for k, idx := range b.Indices {
					seen[idx]++
					if b.Inputs[k] != idx || b.Targets[k] != 1000+idx {
						t.Fatalf("N=%d bs=%d: misaligned row for index %d", n, bs, idx)
					}
				}
			}
			for idx, c := range seen {
				if c != 1 {
					t.Fatalf("N=%d bs=%d: index %d seen %d times", n, bs, idx, c)
				}
			}
		}
	}
}

func TestSameSeedSameBatches(t *testing.T) {
	t.Parallel()

	a, _ := New(indexPartition(25), 6, random.NewSplitMix64(77))
	b, _ := New(indexPartition(25), 6, random.NewSplitMix64(77))
	if !reflect.DeepEqual(a.Permutation(), b.Permutation()) {
		t.Fatalf("permutations differ for the same seed")
	}
	if !reflect.DeepEqual(drain(t, a), drain(t, b)) {
		t.Fatalf("batch sequences differ for the same seed")
	}
}

func TestDifferentSeedsShuffleDifferently(t *testing.T) {
	t.Parallel()

	a, _ := New(indexPartition(50), 5, random.NewSplitMix64(1))
	b, _ := New(indexPartition(50), 5, random.NewSplitMix64(2))
	if reflect.DeepEqual(a.Permutation(), b.Permutation()) {
		t.Fatalf("expected different permutations for different seeds")
	}
	identity := make([]int, 50)
	for i := range identity {
		identity[i] = i
	}
	if slices.Equal(a.Permutation(), identity) {
		t.Fatalf("permutation was not shuffled")
	}
}

func TestEmptyPartitionIsExhausted(t *testing.T) {
	t.Parallel()

	it, err := New(Partition[string, string]{}, 4, random.NewSplitMix64(3))
	if err != nil {
		t.Fatalf("New on empty partition: %v", err)
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("expected an immediately exhausted iterator")
	}
	if it.Batches() != 0 {
		t.Fatalf("Batches() = %d, want 0", it.Batches())
	}
}

func TestIteratorIsNotRestartable(t *testing.T) {
	t.Parallel()

	it, _ := New(indexPartition(5), 2, random.NewSplitMix64(4))
	if got := len(drain(t, it)); got != 3 {
		t.Fatalf("first pass: %d batches, want 3", got)
	}
	if got := len(drain(t, it)); got != 0 {
		t.Fatalf("second pass should yield nothing, got %d batches", got)
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	for _, bs := range []int{0, -3} {
		if _, err := New(indexPartition(4), bs, random.NewSplitMix64(1)); !errors.Is(err, errkind.ErrConfigValidation) {
			t.Fatalf("batch size %d: expected config validation error, got %v", bs, err)
		}
	}
	bad := Partition[int, int]{Inputs: []int{1, 2}, Targets: []int{1}}
	if _, err := New(bad, 1, random.NewSplitMix64(1)); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("mismatched lengths: expected config validation error, got %v", err)
	}
	if _, err := New(indexPartition(4), 1, nil); err == nil {
		t.Fatalf("expected error without a random source")
	}
}

func TestTrainEpochYieldsPairs(t *testing.T) {
	t.Parallel()

	seq, err := TrainEpoch(indexPartition(10), 4, 9)
	if err != nil {
		t.Fatalf("TrainEpoch: %v", err)
	}
	total := 0
	var sizes []int
	for xs, ys := range seq {
		for i := range xs {
			if ys[i] != xs[i]+1000 {
				t.Fatalf("misaligned pair %d/%d", xs[i], ys[i])
			}
		}
		sizes = append(sizes, len(xs))
		total += len(xs)
	}
	if total != 10 || !reflect.DeepEqual(sizes, []int{4, 4, 2}) {
		t.Fatalf("sizes = %v, total %d", sizes, total)
	}

	firstBatch := func() []int {
		seq, _ := TrainEpoch(indexPartition(10), 4, 9)
		for xs := range seq {
			return xs
		}
		return nil
	}
	if a, b := firstBatch(), firstBatch(); !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave different first batch: %v vs %v", a, b)
	}

	if _, err := TrainEpoch(indexPartition(3), 0, 1); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func TestShardsAreDisjointAndCover(t *testing.T) {
	t.Parallel()

	p := indexPartition(11)
	seen := make(map[int]int)
	for i := range 3 {
		s, err := p.Shard(i, 3)
		if err != nil {
			t.Fatalf("Shard(%d, 3): %v", i, err)
		}
		it, err := New(s, 2, random.NewSplitMix64(uint64(i)))
		if err != nil {
			t.Fatalf("New on shard %d: %v", i, err)
		}
		for _, b := range drain(t, it) {
			for _, x := range b.Inputs {
				seen[x]++
			}
		}
	}
	if len(seen) != 11 {
		t.Fatalf("shards covered %d samples, want 11", len(seen))
	}
	for x, c := range seen {
		if c != 1 {
			t.Fatalf("sample %d covered %d times", x, c)
		}
	}
	if _, err := p.Shard(3, 3); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected error for out-of-range shard, got %v", err)
	}
}
