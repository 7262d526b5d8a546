package decode

import (
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logits"
)

// Config is the immutable configuration for one generation call.
type Config struct {
	// MaxLength caps the total sequence length, prompt included.
	MaxLength int `json:"max_length"`
	// MaxNewTokens further caps generation to len(prompt)+MaxNewTokens when > 0.
	MaxNewTokens int `json:"max_new_tokens"`
	// EOSTokenID stops generation when produced. Negative disables it.
	EOSTokenID int `json:"eos_token_id"`

	Mode        logits.Mode `json:"mode"`
	Temperature float32     `json:"temperature"`
	TopK        int         `json:"top_k"`
	Seed        int64       `json:"seed"`

	// UseCache feeds only the newest token plus the carried cache state to
	// the model after the first step.
	UseCache bool `json:"use_cache"`
}

func DefaultConfig() Config {
	return Config{
		MaxLength:    256,
		MaxNewTokens: 128,
		EOSTokenID:   -1,
		Mode:         logits.Greedy,
		Temperature:  1.0,
		TopK:         50,
	}
}

func (c Config) Policy() logits.Policy {
	return logits.Policy{
		Mode:        c.Mode,
		Temperature: c.Temperature,
		TopK:        c.TopK,
	}
}

// Limit is the length at which generation stops for a prompt of promptLen tokens.
func (c Config) Limit(promptLen int) int {
	limit := c.MaxLength
	if c.MaxNewTokens > 0 {
		limit = min(limit, promptLen+c.MaxNewTokens)
	}
	return limit
}

// Validate checks the config against a prompt of promptLen tokens.
func (c Config) Validate(promptLen int) error {
	if promptLen < 1 {
		return errkind.NewConfig("prompt", "must contain at least one token")
	}
	if c.MaxLength < 1 {
		return errkind.NewConfig("max_length", "must be >= 1, got %d", c.MaxLength)
	}
	if c.MaxLength < promptLen {
		return errkind.NewConfig("max_length", "%d is shorter than the prompt (%d tokens)", c.MaxLength, promptLen)
	}
	if c.MaxNewTokens < 0 {
		return errkind.NewConfig("max_new_tokens", "must be >= 0, got %d", c.MaxNewTokens)
	}
	return c.Policy().Validate()
}

// Options holds optional overrides. Nil fields keep the default.
type Options struct {
	MaxLength    *int
	MaxNewTokens *int
	EOSTokenID   *int
	Mode         *logits.Mode
	Temperature  *float64
	TopK         *int
	Seed         *int64
	UseCache     *bool
}

// Resolve applies opts on top of defaults. The result is not validated.
func Resolve(opts Options, defaults Config) Config {
	cfg := defaults
	if opts.MaxLength != nil {
		cfg.MaxLength = *opts.MaxLength
	}
	if opts.MaxNewTokens != nil {
		cfg.MaxNewTokens = *opts.MaxNewTokens
	}
	if opts.EOSTokenID != nil {
		cfg.EOSTokenID = *opts.EOSTokenID
	}
	if opts.Mode != nil {
		cfg.Mode = *opts.Mode
	}
	if opts.Temperature != nil {
		cfg.Temperature = float32(*opts.Temperature)
	}
	if opts.TopK != nil {
		cfg.TopK = *opts.TopK
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
	}
	if opts.UseCache != nil {
		cfg.UseCache = *opts.UseCache
	}
	return cfg
}
