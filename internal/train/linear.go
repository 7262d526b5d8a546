package train

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/random"
)

// Linear is y = M*x + B.
type Linear struct {
	M float64 `json:"m"`
	B float64 `json:"b"`
}

func (l Linear) Predict(x float64) float64 {
	return l.M*x + l.B
}

// MSE is the mean squared error of l over the samples.
func (l Linear) MSE(xs, ys []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	res := l.residuals(xs, ys)
	return floats.Dot(res, res) / float64(len(xs))
}

func (l Linear) residuals(xs, ys []float64) []float64 {
	res := make([]float64, len(xs))
	for i, x := range xs {
		res[i] = l.Predict(x) - ys[i]
	}
	return res
}

// SGDStep takes one gradient step on the mean squared error and returns
// the loss measured before the update.
func (l *Linear) SGDStep(xs, ys []float64, lr float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	n := float64(len(xs))
	res := l.residuals(xs, ys)
	loss := floats.Dot(res, res) / n
	gradM := 2 * floats.Dot(res, xs) / n
	gradB := 2 * floats.Sum(res) / n
	l.M -= lr * gradM
	l.B -= lr * gradB
	return loss
}

// Synthetic samples n points x uniformly in [lo, hi) with y = target(x).
func Synthetic(n int, target Linear, lo, hi float64, seed int64) batch.Partition[float64, float64] {
	rng := random.New(seed)
	p := batch.Partition[float64, float64]{
		Inputs:  make([]float64, n),
		Targets: make([]float64, n),
	}
	for i := range n {
		x := lo + (hi-lo)*rng.Float64()
		p.Inputs[i] = x
		p.Targets[i] = target.Predict(x)
	}
	return p
}

type LinearConfig struct {
	Target       Linear
	Samples      int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
}

func DefaultLinearConfig() LinearConfig {
	return LinearConfig{
		Target:       Linear{M: 0.25, B: 7},
		Samples:      200,
		Epochs:       30,
		BatchSize:    10,
		LearningRate: 0.02,
		Seed:         1,
	}
}

// FitLinear recovers cfg.Target from synthetic samples on [-5, 5). The
// initial parameters are drawn from the same range.
func FitLinear(ctx context.Context, cfg LinearConfig, log logger.Logger) (Linear, []EpochStats, error) {
	if !(cfg.LearningRate > 0) {
		return Linear{}, nil, fmt.Errorf("learning rate must be > 0, got %v", cfg.LearningRate)
	}
	data := Synthetic(cfg.Samples, cfg.Target, -5, 5, cfg.Seed)

	init := random.New(cfg.Seed + 1)
	model := Linear{
		M: -5 + 10*init.Float64(),
		B: -5 + 10*init.Float64(),
	}

	loop := Loop{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		Seed:      cfg.Seed,
		Log:       log,
	}
	history, err := Run(ctx, data, loop, func(_ context.Context, xs, ys []float64) (float64, error) {
		return model.SGDStep(xs, ys, cfg.LearningRate), nil
	})
	return model, history, err
}
