package logits

import (
	"fmt"
	"strings"

	"github.com/samcharles93/tokenloop/internal/errkind"
)

// Mode selects how a token is chosen from a score vector.
type Mode int

const (
	// Greedy returns the arg-max of the scores.
	Greedy Mode = iota
	// Sample draws from the temperature-scaled top-k distribution.
	Sample
)

func (m Mode) String() string {
	switch m {
	case Greedy:
		return "greedy"
	case Sample:
		return "sample"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	mode, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode accepts "greedy" or "sample" (also "sampling", "topk").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greedy", "argmax", "":
		return Greedy, nil
	case "sample", "sampling", "topk", "top-k":
		return Sample, nil
	default:
		return Greedy, errkind.NewConfig("mode", "unknown decoding mode %q", s)
	}
}

// Policy configures a Selector.
type Policy struct {
	Mode        Mode
	Temperature float32
	TopK        int
}

// Validate checks the invariants for the configured mode. Greedy ignores
// temperature; TopK must still be positive.
func (p Policy) Validate() error {
	if p.TopK < 1 {
		return errkind.NewConfig("top_k", "must be >= 1, got %d", p.TopK)
	}
	switch p.Mode {
	case Greedy:
		return nil
	case Sample:
		if !(p.Temperature > 0) {
			return errkind.NewConfig("temperature", "must be > 0 when sampling, got %v", p.Temperature)
		}
		return nil
	default:
		return errkind.NewConfig("mode", "unsupported mode %v", p.Mode)
	}
}
