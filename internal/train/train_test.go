package train

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
)

func TestRunVisitsEverySampleEachEpoch(t *testing.T) {
	t.Parallel()

	p := batch.Partition[int, int]{Inputs: make([]int, 10), Targets: make([]int, 10)}
	for i := range 10 {
		p.Inputs[i] = i
	}
	seen := make(map[int]int)
	history, err := Run(context.Background(), p, Loop{Epochs: 3, BatchSize: 4, Log: logger.Discard()},
		func(_ context.Context, xs, _ []int) (float64, error) {
			for _, x := range xs {
				seen[x]++
			}
			return 1, nil
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 epochs, got %d", len(history))
	}
	for _, st := range history {
		if st.Batches != 3 || st.Samples != 10 || st.MeanLoss != 1 {
			t.Fatalf("unexpected epoch stats: %+v", st)
		}
	}
	for x, c := range seen {
		if c != 3 {
			t.Fatalf("sample %d visited %d times, want 3", x, c)
		}
	}
}

func TestRunStopsOnStepError(t *testing.T) {
	t.Parallel()

	p := batch.Partition[int, int]{Inputs: make([]int, 8), Targets: make([]int, 8)}
	cause := errors.New("nan loss")
	calls := 0
	_, err := Run(context.Background(), p, Loop{Epochs: 2, BatchSize: 2, Log: logger.Discard()},
		func(context.Context, []int, []int) (float64, error) {
			calls++
			if calls == 2 {
				return 0, cause
			}
			return 0, nil
		})
	if !errors.Is(err, cause) {
		t.Fatalf("expected step error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected to stop after the failing step, got %d calls", calls)
	}
}

func TestRunValidatesLoop(t *testing.T) {
	t.Parallel()

	p := batch.Partition[int, int]{Inputs: []int{1}, Targets: []int{1}}
	step := func(context.Context, []int, []int) (float64, error) { return 0, nil }
	if _, err := Run(context.Background(), p, Loop{Epochs: 0, BatchSize: 1}, step); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected config error for zero epochs, got %v", err)
	}
	if _, err := Run(context.Background(), p, Loop{Epochs: 1, BatchSize: 0, Log: logger.Discard()}, step); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected config error for zero batch size, got %v", err)
	}
}

func TestSGDStepReducesLoss(t *testing.T) {
	t.Parallel()

	xs := []float64{-2, -1, 0, 1, 2}
	target := Linear{M: 3, B: -1}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = target.Predict(x)
	}
	l := Linear{}
	before := l.MSE(xs, ys)
	got := l.SGDStep(xs, ys, 0.05)
	if got != before {
		t.Fatalf("SGDStep returned %v, want pre-update loss %v", got, before)
	}
	if after := l.MSE(xs, ys); after >= before {
		t.Fatalf("loss did not decrease: %v -> %v", before, after)
	}
}

func TestFitLinearRecoversTarget(t *testing.T) {
	t.Parallel()

	cfg := DefaultLinearConfig()
	model, history, err := FitLinear(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("FitLinear: %v", err)
	}
	if len(history) != cfg.Epochs {
		t.Fatalf("expected %d epochs, got %d", cfg.Epochs, len(history))
	}
	if math.Abs(model.M-0.25) > 1e-2 || math.Abs(model.B-7) > 1e-2 {
		t.Fatalf("fit = %+v, want m=0.25 b=7", model)
	}
	if history[len(history)-1].MeanLoss >= history[0].MeanLoss {
		t.Fatalf("loss did not decrease: first %v last %v", history[0].MeanLoss, history[len(history)-1].MeanLoss)
	}
}

func TestFitLinearRejectsBadLearningRate(t *testing.T) {
	t.Parallel()

	cfg := DefaultLinearConfig()
	cfg.LearningRate = 0
	if _, _, err := FitLinear(context.Background(), cfg, logger.Discard()); err == nil {
		t.Fatalf("expected error for zero learning rate")
	}
}
