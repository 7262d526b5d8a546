package api

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/tokenizer"
)

// Entry is one servable model with its tokenizer and generation defaults.
type Entry struct {
	Model     decode.Model
	Tokenizer tokenizer.Tokenizer
	Defaults  decode.Config
}

// Registry holds named models. Calls into the same model are serialised
// because models may keep per-call state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	entry Entry
	mu    sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

func (r *Registry) Register(name string, e Entry) error {
	if name == "" {
		return fmt.Errorf("model name is required")
	}
	if e.Model == nil {
		return fmt.Errorf("model %q: Model is required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("model %q already registered", name)
	}
	r.entries[name] = &registryEntry{entry: e}
	return nil
}

// WithModel runs fn while holding the model's lock.
func (r *Registry) WithModel(ctx context.Context, name string, fn func(Entry) error) error {
	r.mu.RLock()
	ent, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ent.entry)
}

// List returns the registered models sorted by name.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		out = append(out, ModelInfo{
			ID:        name,
			Object:    "model",
			VocabSize: r.entries[name].entry.Model.VocabSize(),
		})
	}
	return out
}
