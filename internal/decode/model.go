package decode

import "context"

// Scores is the output of one model call: the score vector for the final
// position and the cache state to carry into the next call.
type Scores struct {
	Logits []float32
	Cache  any
}

// Model is the scoring capability the decode loop drives. cache is nil on
// the first call and whenever caching is disabled; otherwise it is exactly
// the Cache returned by the previous call. With a cache, tokens holds only
// the newly appended token.
type Model interface {
	Score(ctx context.Context, tokens []int, cache any) (Scores, error)
	VocabSize() int
}
