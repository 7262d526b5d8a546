package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samcharles93/tokenloop/internal/decode"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/urfave/cli/v3"
)

type generateResult struct {
	Prompt     []int         `json:"prompt"`
	Tokens     []int         `json:"tokens"`
	Completion []int         `json:"completion"`
	Text       string        `json:"text"`
	StopReason string        `json:"stop_reason"`
	DurationMS float64       `json:"duration_ms"`
	TPS        float64       `json:"tokens_per_second"`
	Config     decode.Config `json:"config"`
}

func generateCmd() *cli.Command {
	var (
		mf modelFlags
		gf genFlags
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Run the decode loop against the toy byte model",
		Flags:   append(append(mf.flags(), gf.flags()...), jsonFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			lm, tok, defaults, err := newToyModel(&mf)
			if err != nil {
				return err
			}
			opts, err := gf.options(cmd, fileConfig)
			if err != nil {
				return err
			}
			cfg := decode.Resolve(opts, defaults)

			var prompt []int
			switch {
			case gf.promptTokens != "":
				prompt, err = parseTokenList(gf.promptTokens)
			case gf.prompt != "":
				prompt, err = tok.Encode(gf.prompt)
			default:
				err = fmt.Errorf("one of --prompt or --prompt-tokens is required")
			}
			if err != nil {
				return err
			}

			d := &decode.Decoder{Model: lm, Log: log}
			if !jsonOutput {
				for _, id := range prompt {
					fmt.Print(tok.TokenString(id))
				}
				d.OnToken = func(id int) {
					fmt.Print(tok.TokenString(id))
				}
			}

			seq, stats, err := d.DecodeWithStats(ctx, prompt, cfg)
			if !jsonOutput {
				fmt.Println()
			}
			if err != nil {
				return err
			}

			completion := seq[len(prompt):]
			if jsonOutput {
				text, err := tok.Decode(completion)
				if err != nil {
					return err
				}
				return printJSON(generateResult{
					Prompt:     prompt,
					Tokens:     seq,
					Completion: completion,
					Text:       text,
					StopReason: string(stats.StopReason),
					DurationMS: float64(stats.Duration) / float64(time.Millisecond),
					TPS:        stats.TPS,
					Config:     cfg,
				})
			}
			_, _ = fmt.Fprintf(os.Stderr, "stop=%s tokens=%d tps=%.1f\n", stats.StopReason, stats.TokensGenerated, stats.TPS)
			return nil
		},
	}
}
