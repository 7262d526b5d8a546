package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samcharles93/tokenloop/internal/api"
	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/errkind"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/samcharles93/tokenloop/internal/tokenizer"
	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
max_length: 64
mode: sample
temperature: 0.75
top_k: 5
seed: 42
use_cache: true
log_level: debug
server_address: 0.0.0.0:9000
rate_limit: 2.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxLength == nil || *cfg.MaxLength != 64 {
		t.Fatalf("max_length: got %v", cfg.MaxLength)
	}
	if cfg.MaxNewTokens != nil {
		t.Fatalf("max_new_tokens should be unset, got %d", *cfg.MaxNewTokens)
	}
	if cfg.Mode != "sample" || cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RateLimit == nil || *cfg.RateLimit != 2.5 {
		t.Fatalf("rate_limit: got %v", cfg.RateLimit)
	}

	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	got := decode.Resolve(opts, decode.DefaultConfig())
	want := decode.DefaultConfig()
	want.MaxLength = 64
	want.Mode = logits.Sample
	want.Temperature = 0.75
	want.TopK = 5
	want.Seed = 42
	want.UseCache = true
	if got != want {
		t.Fatalf("resolved: got %+v, want %+v", got, want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
	if _, err := LoadConfig(writeConfig(t, "max_length: [1, 2")); err == nil {
		t.Fatal("expected parse error")
	}

	cfg, err := LoadConfig(writeConfig(t, "mode: beam\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := cfg.options(); !errors.Is(err, errkind.ErrConfigValidation) {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

// runGenFlags parses args against the generation flags and returns the
// resulting options.
func runGenFlags(t *testing.T, cfg Config, args ...string) decode.Options {
	t.Helper()

	var (
		gf   genFlags
		opts decode.Options
	)
	cmd := &cli.Command{
		Name:  "gen",
		Flags: gf.flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			var err error
			opts, err = gf.options(c, cfg)
			return err
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"gen"}, args...)); err != nil {
		t.Fatalf("run %v: %v", args, err)
	}
	return opts
}

func TestGenFlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	topK, seed := 9, int64(3)
	cfg := Config{TopK: &topK, Seed: &seed, Mode: "sample"}

	got := decode.Resolve(runGenFlags(t, cfg, "--top-k", "2", "--temperature", "0.5", "--use-cache"), decode.DefaultConfig())
	want := decode.DefaultConfig()
	want.Mode = logits.Sample
	want.TopK = 2
	want.Seed = 3
	want.Temperature = 0.5
	want.UseCache = true
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGenFlagsUnsetLeaveDefaults(t *testing.T) {
	t.Parallel()

	opts := runGenFlags(t, Config{})
	if !reflect.DeepEqual(opts, decode.Options{}) {
		t.Fatalf("expected empty options, got %+v", opts)
	}
	if got := decode.Resolve(opts, decode.DefaultConfig()); got != decode.DefaultConfig() {
		t.Fatalf("defaults changed: %+v", got)
	}
}

func TestParseTokenList(t *testing.T) {
	t.Parallel()

	got, err := parseTokenList("5, 9,12")
	if err != nil {
		t.Fatalf("parseTokenList: %v", err)
	}
	if want := []int{5, 9, 12}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := parseTokenList("1,x"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestNewRegistryAppliesConfig(t *testing.T) {
	t.Parallel()

	maxLen := 32
	mf := modelFlags{hidden: 4, maxContext: 64, seed: 1}
	reg, err := newRegistry(&mf, Config{MaxLength: &maxLen})
	if err != nil {
		t.Fatalf("newRegistry: %v", err)
	}
	models := reg.List()
	if len(models) != 1 || models[0].ID != toyModelName {
		t.Fatalf("models: %+v", models)
	}
	if err := reg.WithModel(context.Background(), toyModelName, func(e api.Entry) error {
		if e.Defaults.MaxLength != 32 {
			t.Errorf("max length: got %d", e.Defaults.MaxLength)
		}
		if e.Defaults.EOSTokenID != tokenizer.ByteEOS {
			t.Errorf("eos: got %d", e.Defaults.EOSTokenID)
		}
		return nil
	}); err != nil {
		t.Fatalf("WithModel: %v", err)
	}
}
