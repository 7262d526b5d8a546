package main

import (
	"fmt"

	"github.com/samcharles93/tokenloop/internal/api"
	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/tokenizer"
	"github.com/samcharles93/tokenloop/internal/toy"
)

const toyModelName = "toy-bytes"

// newToyModel builds the byte-level toy model and its generation defaults.
func newToyModel(m *modelFlags) (*toy.ToyLM, tokenizer.Bytes, decode.Config, error) {
	tok := tokenizer.Bytes{}
	lm, err := toy.New(tok.VocabSize(), m.hidden, m.maxContext, m.seed)
	if err != nil {
		return nil, tok, decode.Config{}, fmt.Errorf("build toy model: %w", err)
	}
	if m.eosBias != 0 {
		lm.SetBias(tok.EOSID(), m.eosBias)
	}
	defaults := decode.DefaultConfig()
	defaults.EOSTokenID = tok.EOSID()
	defaults.MaxLength = min(defaults.MaxLength, m.maxContext)
	return lm, tok, defaults, nil
}

// newRegistry registers the toy model with the config file's generation
// values layered over its defaults.
func newRegistry(m *modelFlags, cfg Config) (*api.Registry, error) {
	lm, tok, defaults, err := newToyModel(m)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	defaults = decode.Resolve(opts, defaults)
	reg := api.NewRegistry()
	if err := reg.Register(toyModelName, api.Entry{
		Model:     lm,
		Tokenizer: tok,
		Defaults:  defaults,
	}); err != nil {
		return nil, err
	}
	return reg, nil
}
