package logits

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyScores    = errors.New("empty score vector")
	ErrNonFiniteScore = errors.New("non-finite score")
)

// Selector picks the next token id from one score vector. It keeps scratch
// buffers between calls and is not safe for concurrent use.
type Selector struct {
	policy Policy
	rng    *rand.Rand

	topIdx []int
	topVal []float64
	prob   []float64
	cum    []float64
}

// NewSelector validates p and returns a selector drawing from src. src may be
// nil for greedy policies.
func NewSelector(p Policy, src rand.Source) (*Selector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Mode == Sample && src == nil {
		return nil, fmt.Errorf("sampling selector requires a random source")
	}
	s := &Selector{policy: p}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s, nil
}

func (s *Selector) Policy() Policy {
	return s.policy
}

// Select returns the chosen token id for scores. The slice is not modified.
//
// In Sample mode the steps are:
//
//  1. divide every score by temperature in float64,
//  2. keep the k highest scaled scores, descending, ties to the lower id,
//  3. softmax over exactly those k values,
//  4. draw r uniformly from [0, total mass),
//  5. return the id of the first entry whose cumulative mass reaches r.
func (s *Selector) Select(scores []float32) (int, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}
	for i, v := range scores {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 1) {
			return 0, fmt.Errorf("%w: score[%d] = %v", ErrNonFiniteScore, i, v)
		}
	}

	if s.policy.Mode == Greedy || s.policy.TopK == 1 {
		return Argmax(scores), nil
	}

	k := min(s.policy.TopK, len(scores))
	idx, val := s.topK(scores, k, float64(s.policy.Temperature))
	if math.IsInf(val[0], -1) {
		return 0, fmt.Errorf("%w: all candidate scores are -Inf", ErrNonFiniteScore)
	}

	prob := s.softmax(val)

	if cap(s.cum) < len(prob) {
		s.cum = make([]float64, len(prob))
	}
	cum := floats.CumSum(s.cum[:len(prob)], prob)

	r := cum[len(cum)-1] * s.rng.Float64()
	for i, c := range cum {
		if c >= r {
			return idx[i], nil
		}
	}
	return idx[len(idx)-1], nil
}

func (s *Selector) softmax(val []float64) []float64 {
	if cap(s.prob) < len(val) {
		s.prob = make([]float64, len(val))
	}
	prob := s.prob[:len(val)]
	copy(prob, val)
	lse := floats.LogSumExp(prob)
	for i := range prob {
		prob[i] = math.Exp(prob[i] - lse)
	}
	return prob
}

// Argmax returns the index of the largest score; the first occurrence wins
// ties. It panics on an empty slice.
func Argmax(x []float32) int {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := 0
	bestV := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > bestV {
			bestV = x[i]
			bestI = i
		}
	}
	return bestI
}

// topK returns the ids and temperature-scaled values of the k largest
// scores, largest first. Any float32 score divided by a positive float32
// temperature is finite in float64. Equal values keep their original order, so the lower id ranks
// higher. O(V*K), fine for the small k used in sampling.
func (s *Selector) topK(scores []float32, k int, temp float64) ([]int, []float64) {
	if cap(s.topIdx) < k+1 {
		s.topIdx = make([]int, 0, k+1)
		s.topVal = make([]float64, 0, k+1)
	}
	topIdx := s.topIdx[:0]
	topVal := s.topVal[:0]

	for i, l := range scores {
		v := float64(l) / temp

		pos := len(topVal)
		for pos > 0 && topVal[pos-1] < v {
			pos--
		}
		if pos >= k {
			continue
		}

		topIdx = append(topIdx, 0)
		topVal = append(topVal, 0)
		copy(topIdx[pos+1:], topIdx[pos:])
		copy(topVal[pos+1:], topVal[pos:])
		topIdx[pos] = i
		topVal[pos] = v

		if len(topVal) > k {
			topIdx = topIdx[:k]
			topVal = topVal[:k]
		}
	}
	s.topIdx = topIdx
	s.topVal = topVal
	return topIdx, topVal
}
