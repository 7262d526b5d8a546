// Package toy provides small deterministic language models for exercising
// the decode loop without a real inference runtime.
package toy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/random"
)

var (
	ErrContextOverflow = errors.New("sequence exceeds context window")
	ErrBadCache        = errors.New("malformed cache state")
	ErrTokenRange      = errors.New("token id out of range")
)

// State is the cache carried between Score calls: the number of positions
// already consumed.
type State struct {
	Pos int
}

// ToyLM scores the next token from the last token alone: an embedding lookup
// followed by a projection back to the vocabulary plus a bias.
type ToyLM struct {
	vocab      int
	hidden     int
	maxContext int

	emb  *mat.Dense    // [vocab x hidden]
	proj *mat.Dense    // [hidden x vocab]
	bias *mat.VecDense // [vocab]
}

var _ decode.Model = (*ToyLM)(nil)

// New builds a model whose weights are drawn from a normal distribution
// seeded with seed. maxContext bounds the number of positions one sequence
// may occupy.
func New(vocab, hidden, maxContext int, seed int64) (*ToyLM, error) {
	if vocab < 1 || hidden < 1 {
		return nil, fmt.Errorf("toy model needs vocab and hidden >= 1, got %d and %d", vocab, hidden)
	}
	if maxContext < 1 {
		return nil, fmt.Errorf("toy model needs max context >= 1, got %d", maxContext)
	}
	rng := random.New(seed)
	scale := 1 / math.Sqrt(float64(hidden))
	fill := func(n int) []float64 {
		data := make([]float64, n)
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
		return data
	}
	return &ToyLM{
		vocab:      vocab,
		hidden:     hidden,
		maxContext: maxContext,
		emb:        mat.NewDense(vocab, hidden, fill(vocab*hidden)),
		proj:       mat.NewDense(hidden, vocab, fill(hidden*vocab)),
		bias:       mat.NewVecDense(vocab, nil),
	}, nil
}

func (m *ToyLM) VocabSize() int  { return m.vocab }
func (m *ToyLM) MaxContext() int { return m.maxContext }

// SetBias overrides the bias of one vocabulary entry. Tests use it to make a
// token dominate.
func (m *ToyLM) SetBias(id int, v float64) {
	m.bias.SetVec(id, v)
}

// Forward returns the logits for the position following tok.
func (m *ToyLM) Forward(tok int) ([]float32, error) {
	if tok < 0 || tok >= m.vocab {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrTokenRange, tok, m.vocab)
	}
	var out mat.VecDense
	out.MulVec(m.proj.T(), m.emb.RowView(tok))
	out.AddVec(&out, m.bias)

	logits := make([]float32, m.vocab)
	for i := range logits {
		logits[i] = float32(out.AtVec(i))
	}
	return logits, nil
}

// Score consumes tokens at the positions following cache and returns the
// scores for the final one. A nil cache starts a new sequence.
func (m *ToyLM) Score(ctx context.Context, tokens []int, cache any) (decode.Scores, error) {
	if err := ctx.Err(); err != nil {
		return decode.Scores{}, err
	}
	if len(tokens) == 0 {
		return decode.Scores{}, fmt.Errorf("score: no tokens")
	}
	pos := 0
	if cache != nil {
		st, ok := cache.(*State)
		if !ok || st == nil || st.Pos < 0 {
			return decode.Scores{}, fmt.Errorf("%w: %T", ErrBadCache, cache)
		}
		pos = st.Pos
	}
	next := pos + len(tokens)
	if next > m.maxContext {
		return decode.Scores{}, fmt.Errorf("%w: %d positions, window is %d", ErrContextOverflow, next, m.maxContext)
	}
	for _, tok := range tokens {
		if tok < 0 || tok >= m.vocab {
			return decode.Scores{}, fmt.Errorf("%w: %d not in [0, %d)", ErrTokenRange, tok, m.vocab)
		}
	}
	logits, err := m.Forward(tokens[len(tokens)-1])
	if err != nil {
		return decode.Scores{}, err
	}
	return decode.Scores{Logits: logits, Cache: &State{Pos: next}}, nil
}
