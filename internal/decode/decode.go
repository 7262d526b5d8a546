package decode

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/samcharles93/tokenloop/internal/random"
)

type StopReason string

const (
	StopEOS       StopReason = "eos"
	StopMaxLength StopReason = "max_length"
)

type Stats struct {
	PromptTokens    int
	TokensGenerated int
	StopReason      StopReason
	Duration        time.Duration
	TPS             float64
}

// Decoder runs autoregressive generation against a Model.
type Decoder struct {
	Model Model
	// Source feeds the sampling selector. When nil, a SplitMix64 seeded with
	// Config.Seed is used for each call.
	Source rand.Source
	// Log defaults to the logger carried by the context.
	Log logger.Logger
	// OnToken is called after every appended token.
	OnToken func(id int)
}

// Decode generates from prompt until EOS or the length limit and returns the
// full sequence, prompt included. On any failure the partial sequence is
// discarded.
func (d *Decoder) Decode(ctx context.Context, prompt []int, cfg Config) ([]int, error) {
	seq, _, err := d.DecodeWithStats(ctx, prompt, cfg)
	return seq, err
}

func (d *Decoder) DecodeWithStats(ctx context.Context, prompt []int, cfg Config) ([]int, Stats, error) {
	stats := Stats{PromptTokens: len(prompt)}
	if ctx == nil {
		return nil, stats, fmt.Errorf("context is required")
	}
	if d.Model == nil {
		return nil, stats, errkind.NewConfig("model", "is required")
	}
	if err := cfg.Validate(len(prompt)); err != nil {
		return nil, stats, err
	}

	src := d.Source
	if src == nil {
		src = random.NewSplitMix64(uint64(cfg.Seed))
	}
	sel, err := logits.NewSelector(cfg.Policy(), src)
	if err != nil {
		return nil, stats, err
	}

	log := d.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	log = log.With("component", "decode")

	vocab := d.Model.VocabSize()
	limit := cfg.Limit(len(prompt))
	seq := make([]int, len(prompt), limit)
	copy(seq, prompt)

	start := time.Now()
	stats.StopReason = StopMaxLength
	var cache any

	for step := 0; len(seq) < limit; step++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, errkind.NewGeneration(err)
		}

		input := seq[:len(seq):len(seq)]
		if cfg.UseCache && step > 0 {
			input = seq[len(seq)-1 : len(seq) : len(seq)]
		}

		out, err := safeScore(ctx, d.Model, input, cache)
		if err != nil {
			return nil, stats, errkind.NewGeneration(errkind.NewInference(step, err))
		}
		if len(out.Logits) != vocab {
			err := fmt.Errorf("got %d scores, want one per vocabulary id (%d)", len(out.Logits), vocab)
			return nil, stats, errkind.NewGeneration(errkind.NewInference(step, err))
		}

		next, err := safeSelect(sel, out.Logits)
		if err != nil {
			return nil, stats, errkind.NewGeneration(errkind.NewInference(step, err))
		}

		seq = append(seq, next)
		if cfg.UseCache {
			cache = out.Cache
		}
		stats.TokensGenerated++
		log.Debug("decode step", "step", step, "token", next, "length", len(seq))

		if d.OnToken != nil {
			d.OnToken(next)
		}
		if cfg.EOSTokenID >= 0 && next == cfg.EOSTokenID {
			stats.StopReason = StopEOS
			break
		}
	}

	stats.Duration = time.Since(start)
	if stats.Duration.Seconds() > 0 {
		stats.TPS = float64(stats.TokensGenerated) / stats.Duration.Seconds()
	}
	log.Debug("decode done",
		"prompt_tokens", stats.PromptTokens,
		"generated", stats.TokensGenerated,
		"stop", string(stats.StopReason),
		"duration", stats.Duration,
	)
	return seq, stats, nil
}

func safeScore(ctx context.Context, m Model, tokens []int, cache any) (out Scores, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Score: %v", rec)
		}
	}()
	return m.Score(ctx, tokens, cache)
}

func safeSelect(sel *logits.Selector, scores []float32) (id int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Select: %v", rec)
		}
	}()
	return sel.Select(scores)
}
