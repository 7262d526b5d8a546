package train

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samcharles93/tokenloop/internal/batch"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/logits"
)

func TestCrossEntropy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rows    [][]float32
		targets []int
		want    float64
	}{
		{"uniform pair", [][]float32{{0, 0}}, []int{0}, math.Ln2},
		{"three classes", [][]float32{{1, 2, 3}}, []int{2}, math.Log(math.Exp(-2) + math.Exp(-1) + 1)},
		{"mean over rows", [][]float32{{0, 0}, {0, 0, 0, 0}}, []int{1, 3}, (math.Ln2 + math.Log(4)) / 2},
		{"large logits stay finite", [][]float32{{1e30, 0}}, []int{0}, 0},
	}
	for _, tt := range tests {
		got, err := CrossEntropy(tt.rows, tt.targets)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	rows := [][]float32{{1, 0}, {0, 1}, {2, 1}}
	got, err := Accuracy(rows, []int{0, 0, 0})
	if err != nil {
		t.Fatalf("Accuracy: %v", err)
	}
	if math.Abs(got-2.0/3) > 1e-12 {
		t.Fatalf("got %v, want 2/3", got)
	}

	// Ties resolve to the lower class.
	if got, _ := Accuracy([][]float32{{5, 5}}, []int{0}); got != 1 {
		t.Fatalf("tie: got %v", got)
	}
}

func TestClassificationMetricErrors(t *testing.T) {
	t.Parallel()

	if _, err := CrossEntropy([][]float32{{0, 1}}, nil); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("length mismatch: got %v", err)
	}
	if _, err := Accuracy([][]float32{{0, 1}}, []int{2}); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("target out of range: got %v", err)
	}
	if _, err := CrossEntropy([][]float32{{}}, []int{0}); !errors.Is(err, logits.ErrEmptyScores) {
		t.Fatalf("empty row: got %v", err)
	}
}

func TestEvaluateWeightsBySample(t *testing.T) {
	t.Parallel()

	// Inputs are the predicted class; odd samples are labelled wrong.
	p := batch.Partition[int, int]{Inputs: make([]int, 10), Targets: make([]int, 10)}
	for i := range 10 {
		p.Inputs[i] = i % 2
		p.Targets[i] = 0
	}
	st, err := Evaluate(context.Background(), p, 4, 7, func(_ context.Context, xs []int) ([][]float32, error) {
		rows := make([][]float32, len(xs))
		for i, x := range xs {
			rows[i] = []float32{0, 0}
			rows[i][x] = 1
		}
		return rows, nil
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if st.Samples != 10 || math.Abs(st.Accuracy-0.5) > 1e-12 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	hit := math.Log(1 + math.Exp(-1))
	miss := math.Log(1+math.Exp(-1)) + 1
	if want := (hit + miss) / 2; math.Abs(st.Loss-want) > 1e-9 {
		t.Fatalf("loss: got %v, want %v", st.Loss, want)
	}
}

func TestClassifierSGDStepLowersLoss(t *testing.T) {
	t.Parallel()

	p, err := Clusters(64, 3, 4, 3, 0.3, 5)
	if err != nil {
		t.Fatalf("Clusters: %v", err)
	}
	c, err := NewClassifier(3, 4, 5)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	first, err := c.SGDStep(p.Inputs, p.Targets, 0.5)
	if err != nil {
		t.Fatalf("SGDStep: %v", err)
	}
	if math.Abs(first-math.Log(3)) > 0.1 {
		t.Fatalf("near-zero weights should give ~ln 3 loss, got %v", first)
	}
	var last float64
	for range 20 {
		last, _ = c.SGDStep(p.Inputs, p.Targets, 0.5)
	}
	if !(last < first/2) {
		t.Fatalf("loss did not fall: first %v last %v", first, last)
	}

	rows, err := c.Logits(p.Inputs)
	if err != nil {
		t.Fatalf("Logits: %v", err)
	}
	ce, err := CrossEntropy(rows, p.Targets)
	if err != nil {
		t.Fatalf("CrossEntropy: %v", err)
	}
	if !(ce < first/2) {
		t.Fatalf("logits loss %v does not reflect training (first %v)", ce, first)
	}
}

func TestClassifierRejectsBadInput(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(2, 3, 1)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if _, err := c.SGDStep([][]float64{{1, 2}}, []int{0}, 0.1); err == nil {
		t.Fatal("expected feature count error")
	}
	if _, err := c.SGDStep([][]float64{{1, 2, 3}}, []int{2}, 0.1); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected target range error, got %v", err)
	}
	if _, err := NewClassifier(1, 3, 1); err == nil {
		t.Fatal("expected error for a single class")
	}
	if _, err := Clusters(10, 4, 3, 1, 1, 1); err == nil {
		t.Fatal("expected error when classes exceed features")
	}
}

func TestFitClassifierSeparatesClusters(t *testing.T) {
	t.Parallel()

	model, history, eval, err := FitClassifier(context.Background(), DefaultClassifierConfig(), logger.Discard())
	if err != nil {
		t.Fatalf("FitClassifier: %v", err)
	}
	if model.Classes() != 4 {
		t.Fatalf("classes: got %d", model.Classes())
	}
	if len(history) != 20 {
		t.Fatalf("epochs: got %d", len(history))
	}
	if history[len(history)-1].MeanLoss >= history[0].MeanLoss {
		t.Fatalf("training loss did not fall: %+v", history)
	}
	if eval.Samples != 200 || eval.Accuracy < 0.9 {
		t.Fatalf("held-out metrics too weak: %+v", eval)
	}
}
