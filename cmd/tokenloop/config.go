package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokenloop configuration file
// (~/.config/tokenloop/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Generation defaults
	MaxLength    *int     `yaml:"max_length"`
	MaxNewTokens *int     `yaml:"max_new_tokens"`
	EOSTokenID   *int     `yaml:"eos_token_id"`
	Mode         string   `yaml:"mode"`
	Temperature  *float64 `yaml:"temperature"`
	TopK         *int     `yaml:"top_k"`
	Seed         *int64   `yaml:"seed"`
	UseCache     *bool    `yaml:"use_cache"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string   `yaml:"server_address"`
	RateLimit     *float64 `yaml:"rate_limit"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokenloop", "config.yaml")
}

// LoadConfig reads path, or the default location when path is empty. A
// missing default file yields a zero Config; a missing explicit file is an
// error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) options() (decode.Options, error) {
	opts := decode.Options{
		MaxLength:    c.MaxLength,
		MaxNewTokens: c.MaxNewTokens,
		EOSTokenID:   c.EOSTokenID,
		Temperature:  c.Temperature,
		TopK:         c.TopK,
		Seed:         c.Seed,
		UseCache:     c.UseCache,
	}
	if c.Mode != "" {
		mode, err := logits.ParseMode(c.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = &mode
	}
	return opts, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, rate *float64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.RateLimit != nil && !c.IsSet("rate") {
		*rate = *cfg.RateLimit
	}
}
