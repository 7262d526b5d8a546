package train

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/samcharles93/tokenloop/internal/random"
)

// CrossEntropy is the mean negative log-likelihood of targets under the
// softmax of each logits row.
func CrossEntropy(rows [][]float32, targets []int) (float64, error) {
	if err := checkRows(rows, targets); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	var sum float64
	buf := make([]float64, 0, len(rows[0]))
	for i, row := range rows {
		buf = buf[:0]
		for _, v := range row {
			buf = append(buf, float64(v))
		}
		sum += floats.LogSumExp(buf) - buf[targets[i]]
	}
	return sum / float64(len(rows)), nil
}

// Accuracy is the fraction of rows whose arg-max equals the target.
func Accuracy(rows [][]float32, targets []int) (float64, error) {
	if err := checkRows(rows, targets); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	hits := 0
	for i, row := range rows {
		if logits.Argmax(row) == targets[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(rows)), nil
}

func checkRows(rows [][]float32, targets []int) error {
	if len(rows) != len(targets) {
		return errkind.NewConfig("targets", "%d logit rows but %d targets", len(rows), len(targets))
	}
	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("row %d: %w", i, logits.ErrEmptyScores)
		}
		if targets[i] < 0 || targets[i] >= len(row) {
			return errkind.NewConfig("targets", "target[%d] = %d outside %d classes", i, targets[i], len(row))
		}
	}
	return nil
}

// EvalStats are sample-weighted metrics over one pass of a partition.
type EvalStats struct {
	Samples  int     `json:"samples"`
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// PredictFunc returns one logits row per input.
type PredictFunc[X any] func(ctx context.Context, inputs []X) ([][]float32, error)

// Evaluate walks p in batches and accumulates cross entropy and accuracy.
func Evaluate[X any](ctx context.Context, p batch.Partition[X, int], batchSize int, seed int64, predict PredictFunc[X]) (EvalStats, error) {
	batches, err := batch.TrainEpoch(p, batchSize, seed)
	if err != nil {
		return EvalStats{}, err
	}
	var st EvalStats
	var lossSum, hitSum float64
	for xs, ys := range batches {
		if err := ctx.Err(); err != nil {
			return EvalStats{}, err
		}
		rows, err := predict(ctx, xs)
		if err != nil {
			return EvalStats{}, err
		}
		loss, err := CrossEntropy(rows, ys)
		if err != nil {
			return EvalStats{}, err
		}
		acc, err := Accuracy(rows, ys)
		if err != nil {
			return EvalStats{}, err
		}
		n := float64(len(ys))
		lossSum += loss * n
		hitSum += acc * n
		st.Samples += len(ys)
	}
	if st.Samples > 0 {
		st.Loss = lossSum / float64(st.Samples)
		st.Accuracy = hitSum / float64(st.Samples)
	}
	return st, nil
}

// Classifier is multinomial logistic regression: logits = W·x + B.
type Classifier struct {
	W *mat.Dense // [classes x features]
	B []float64
}

func NewClassifier(classes, features int, seed int64) (*Classifier, error) {
	if classes < 2 || features < 1 {
		return nil, errkind.NewConfig("classifier", "need >= 2 classes and >= 1 feature, got %d and %d", classes, features)
	}
	rng := random.New(seed)
	w := make([]float64, classes*features)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.01
	}
	return &Classifier{
		W: mat.NewDense(classes, features, w),
		B: make([]float64, classes),
	}, nil
}

func (c *Classifier) Classes() int {
	r, _ := c.W.Dims()
	return r
}

func (c *Classifier) scores(xs [][]float64) (*mat.Dense, *mat.Dense, error) {
	_, features := c.W.Dims()
	x := mat.NewDense(len(xs), features, nil)
	for i, row := range xs {
		if len(row) != features {
			return nil, nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row), features)
		}
		x.SetRow(i, row)
	}
	var z mat.Dense
	z.Mul(x, c.W.T())
	for i := range len(xs) {
		floats.Add(z.RawRowView(i), c.B)
	}
	return &z, x, nil
}

// Logits returns one row of class scores per sample.
func (c *Classifier) Logits(xs [][]float64) ([][]float32, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	z, _, err := c.scores(xs)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(xs))
	for i := range out {
		row := z.RawRowView(i)
		out[i] = make([]float32, len(row))
		for j, v := range row {
			out[i][j] = float32(v)
		}
	}
	return out, nil
}

// SGDStep takes one cross-entropy gradient step and returns the loss
// measured before the update.
func (c *Classifier) SGDStep(xs [][]float64, ys []int, lr float64) (float64, error) {
	if len(xs) == 0 {
		return 0, nil
	}
	if len(xs) != len(ys) {
		return 0, errkind.NewConfig("targets", "%d samples but %d targets", len(xs), len(ys))
	}
	z, x, err := c.scores(xs)
	if err != nil {
		return 0, err
	}
	classes := c.Classes()
	n := float64(len(xs))

	// z becomes softmax(z) - onehot(y), the gradient of the loss w.r.t. z.
	var loss float64
	for i, y := range ys {
		if y < 0 || y >= classes {
			return 0, errkind.NewConfig("targets", "target[%d] = %d outside %d classes", i, y, classes)
		}
		row := z.RawRowView(i)
		lse := floats.LogSumExp(row)
		loss += lse - row[y]
		for j := range row {
			row[j] = math.Exp(row[j] - lse)
		}
		row[y]--
	}

	var gw mat.Dense
	gw.Mul(z.T(), x)
	gw.Scale(-lr/n, &gw)
	c.W.Add(c.W, &gw)
	for j := range classes {
		c.B[j] -= lr * mat.Sum(z.ColView(j)) / n
	}
	return loss / n, nil
}

// Clusters samples n labelled points. Class k is centred on Spread·e_k with
// isotropic Gaussian noise, and labels cycle through the classes.
func Clusters(n, classes, features int, spread, noise float64, seed int64) (batch.Partition[[]float64, int], error) {
	if classes < 2 || features < classes {
		return batch.Partition[[]float64, int]{}, errkind.NewConfig("clusters", "need 2 <= classes <= features, got %d and %d", classes, features)
	}
	rng := random.New(seed)
	p := batch.Partition[[]float64, int]{
		Inputs:  make([][]float64, n),
		Targets: make([]int, n),
	}
	for i := range n {
		label := i % classes
		x := make([]float64, features)
		for j := range x {
			x[j] = noise * rng.NormFloat64()
		}
		x[label] += spread
		p.Inputs[i] = x
		p.Targets[i] = label
	}
	return p, nil
}

type ClassifierConfig struct {
	Classes      int     `json:"classes"`
	Features     int     `json:"features"`
	Spread       float64 `json:"spread"`
	Noise        float64 `json:"noise"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
	LearningRate float64 `json:"learning_rate"`
	Seed         int64   `json:"seed"`
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Classes:      4,
		Features:     8,
		Spread:       3,
		Noise:        0.5,
		TrainSamples: 400,
		TestSamples:  200,
		Epochs:       20,
		BatchSize:    16,
		LearningRate: 0.1,
		Seed:         1,
	}
}

// FitClassifier trains a Classifier on synthetic clusters and reports
// cross entropy and accuracy on an independently drawn test set.
func FitClassifier(ctx context.Context, cfg ClassifierConfig, log logger.Logger) (*Classifier, []EpochStats, EvalStats, error) {
	if !(cfg.LearningRate > 0) {
		return nil, nil, EvalStats{}, fmt.Errorf("learning rate must be > 0, got %v", cfg.LearningRate)
	}
	trainSet, err := Clusters(cfg.TrainSamples, cfg.Classes, cfg.Features, cfg.Spread, cfg.Noise, cfg.Seed)
	if err != nil {
		return nil, nil, EvalStats{}, err
	}
	testSet, err := Clusters(cfg.TestSamples, cfg.Classes, cfg.Features, cfg.Spread, cfg.Noise, cfg.Seed+1)
	if err != nil {
		return nil, nil, EvalStats{}, err
	}
	model, err := NewClassifier(cfg.Classes, cfg.Features, cfg.Seed+2)
	if err != nil {
		return nil, nil, EvalStats{}, err
	}

	loop := Loop{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		Seed:      cfg.Seed,
		Log:       log,
	}
	history, err := Run(ctx, trainSet, loop, func(_ context.Context, xs [][]float64, ys []int) (float64, error) {
		return model.SGDStep(xs, ys, cfg.LearningRate)
	})
	if err != nil {
		return nil, history, EvalStats{}, err
	}

	eval, err := Evaluate(ctx, testSet, cfg.BatchSize, cfg.Seed, func(_ context.Context, xs [][]float64) ([][]float32, error) {
		return model.Logits(xs)
	})
	if err != nil {
		return nil, history, EvalStats{}, err
	}
	return model, history, eval, nil
}
