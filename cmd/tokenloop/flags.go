package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/logits"
	"github.com/urfave/cli/v3"
)

var (
	configFile string
	fileConfig Config
	logLevel   string
	logFormat  string
	debug      bool
	jsonOutput bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print machine-readable JSON",
		Destination: &jsonOutput,
	}
}

// modelFlags configures the toy language model.
type modelFlags struct {
	hidden     int
	maxContext int
	seed       int64
	eosBias    float64
}

func (m *modelFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "hidden",
			Usage:       "toy model hidden size",
			Value:       16,
			Destination: &m.hidden,
		},
		&cli.IntFlag{
			Name:        "max-context",
			Aliases:     []string{"ctx"},
			Usage:       "toy model context window",
			Value:       512,
			Destination: &m.maxContext,
		},
		&cli.Int64Flag{
			Name:        "model-seed",
			Usage:       "seed for the toy model weights",
			Value:       1,
			Destination: &m.seed,
		},
		&cli.Float64Flag{
			Name:        "eos-bias",
			Usage:       "logit bias added to the end-of-sequence token",
			Destination: &m.eosBias,
		},
	}
}

// genFlags holds the generation overrides. Only explicitly set flags are
// applied on top of the config file.
type genFlags struct {
	prompt       string
	promptTokens string
	maxLength    int
	maxNewTokens int
	eos          int
	mode         string
	temperature  float64
	topK         int
	seed         int64
	useCache     bool
}

func (g *genFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "prompt text (byte tokenized)",
			Destination: &g.prompt,
		},
		&cli.StringFlag{
			Name:        "prompt-tokens",
			Usage:       "comma separated prompt token ids; overrides --prompt",
			Destination: &g.promptTokens,
		},
		&cli.IntFlag{
			Name:        "max-length",
			Usage:       "maximum total sequence length",
			Destination: &g.maxLength,
		},
		&cli.IntFlag{
			Name:        "max-new-tokens",
			Aliases:     []string{"n"},
			Usage:       "maximum tokens to generate (0 = no extra cap)",
			Destination: &g.maxNewTokens,
		},
		&cli.IntFlag{
			Name:        "eos",
			Usage:       "end-of-sequence token id (-1 disables)",
			Destination: &g.eos,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "token selection (greedy, sample)",
			Destination: &g.mode,
		},
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature",
			Destination: &g.temperature,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"topk"},
			Usage:       "number of candidates kept when sampling",
			Destination: &g.topK,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Aliases:     []string{"s"},
			Usage:       "sampling seed",
			Destination: &g.seed,
		},
		&cli.BoolFlag{
			Name:        "use-cache",
			Usage:       "feed only the newest token and thread the model cache",
			Destination: &g.useCache,
		},
	}
}

// options layers explicitly set flags over the config file values.
func (g *genFlags) options(cmd *cli.Command, cfg Config) (decode.Options, error) {
	opts, err := cfg.options()
	if err != nil {
		return opts, err
	}
	if cmd.IsSet("max-length") {
		opts.MaxLength = &g.maxLength
	}
	if cmd.IsSet("max-new-tokens") {
		opts.MaxNewTokens = &g.maxNewTokens
	}
	if cmd.IsSet("eos") {
		opts.EOSTokenID = &g.eos
	}
	if cmd.IsSet("mode") {
		mode, err := logits.ParseMode(g.mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = &mode
	}
	if cmd.IsSet("temperature") {
		opts.Temperature = &g.temperature
	}
	if cmd.IsSet("top-k") {
		opts.TopK = &g.topK
	}
	if cmd.IsSet("seed") {
		opts.Seed = &g.seed
	}
	if cmd.IsSet("use-cache") {
		opts.UseCache = &g.useCache
	}
	return opts, nil
}

func parseTokenList(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", f, err)
		}
		out = append(out, id)
	}
	return out, nil
}
