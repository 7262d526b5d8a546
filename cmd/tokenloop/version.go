package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/tokenloop/internal/version"

	"github.com/urfave/cli/v3"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{jsonFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			if jsonOutput {
				return printJSON(info)
			}
			fmt.Printf("version: %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:  %s\n", info.Commit)
			}
			if info.Dirty {
				fmt.Println("dirty:   true")
			}
			return nil
		},
	}
}
