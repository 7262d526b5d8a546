package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "tokenloop",
		Usage: "Token decoding and minibatch sandbox",
		Flags: append(loggingFlags(), &cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: $XDG_CONFIG_HOME/tokenloop/config.yaml)",
			Destination: &configFile,
		}),
		Before: setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			generateCmd(),
			batchesCmd(),
			fitLinearCmd(),
			fitClassifierCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging loads the config file and installs the logger into ctx.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}
	applyLoggingConfig(cmd, cfg)
	fileConfig = cfg

	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}

	format := logger.FormatText
	if logFormat == "auto" {
		if isTerminal(os.Stderr) {
			format = logger.FormatPretty
		}
	} else {
		format, err = logger.ParseFormat(logFormat)
		if err != nil {
			return ctx, err
		}
	}
	return logger.WithContext(ctx, logger.NewWithFormat(os.Stderr, format, level)), nil
}
