// Package main provides the roipool CLI: pool regions from JSON input,
// route gradients back through stored index maps, serve the HTTP API and
// benchmark the kernels.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/comfforts/logger"
	"github.com/urfave/cli/v3"
)

const version = "v0.1.0-dev"

func main() {
	ctx := logger.WithLogger(context.Background(), logger.GetSlogLogger())

	app := &cli.Command{
		Name:  "roipool",
		Usage: "Region of interest max pooling",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			forwardCmd(),
			backwardCmd(),
			serveCmd(),
			benchCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("roipool %s\n", version)
			return nil
		},
	}
}
