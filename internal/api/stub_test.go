package api

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/decode"
)

// scriptedModel scores picks[i] highest on its i-th call and repeats the
// last pick afterwards.
type scriptedModel struct {
	vocab int
	picks []int
	calls int
}

func (s *scriptedModel) VocabSize() int { return s.vocab }

func (s *scriptedModel) Score(_ context.Context, _ []int, _ any) (decode.Scores, error) {
	if len(s.picks) == 0 {
		return decode.Scores{}, fmt.Errorf("no scripted picks")
	}
	pick := s.picks[min(s.calls, len(s.picks)-1)]
	s.calls++
	scores := make([]float32, s.vocab)
	scores[pick] = 1
	return decode.Scores{Logits: scores}, nil
}
