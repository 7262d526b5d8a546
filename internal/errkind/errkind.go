// Package errkind holds the error kinds shared by the decode loop, the token
// selector and the batch iterator. Each kind is a sentinel plus a typed error
// that unwraps to both the sentinel and the underlying cause.
package errkind

import (
	"errors"
	"fmt"
)

var (
	ErrConfigValidation = errors.New("config_validation")
	ErrModelInference   = errors.New("model_inference")
	ErrGeneration       = errors.New("generation")
)

// ConfigError reports a configuration value that violates an invariant.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid config: " + e.Msg
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigValidation
}

func NewConfig(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InferenceError reports a model call that failed or broke the
// one-score-per-vocabulary-id contract.
type InferenceError struct {
	Step int
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed at step %d: %v", e.Step, e.Err)
}

func (e *InferenceError) Unwrap() []error {
	return []error{ErrModelInference, e.Err}
}

func NewInference(step int, err error) error {
	return &InferenceError{Step: step, Err: err}
}

// GenerationError is what Decode returns to its caller. The partial sequence
// is never attached.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

func NewGeneration(err error) error {
	if err == nil {
		return nil
	}
	return &GenerationError{Err: err}
}
