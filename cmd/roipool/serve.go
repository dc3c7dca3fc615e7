package main

import (
	"context"
	"fmt"
	"time"

	"github.com/comfforts/logger"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/roipool/internal/server"
)

func serveCmd() *cli.Command {
	defaults := server.DefaultConfig()
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
	)

	flags := append([]cli.Flag{}, poolFlags()...)
	flags = append(flags, backendFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       defaults.Address,
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       defaults.ReadTimeout,
			Destination: &readTimeout,
		},
		&cli.Int64Flag{
			Name:        "max-body",
			Usage:       "maximum request body size in bytes",
			Value:       defaults.MaxBodyBytes,
			Destination: &maxBody,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the forward and backward API over HTTP",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
				ctx = logger.WithLogger(ctx, l)
			}
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			applyServeConfig(cmd, cfg, &addr, &maxBody)

			pool := poolConfig()
			if err := pool.Validate(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			backend, release, err := openBackend()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open backend: %v", err), 1)
			}
			defer release()

			srv := server.New(backend, pool, server.Config{
				Address:      addr,
				ReadTimeout:  readTimeout,
				MaxBodyBytes: maxBody,
			})
			l.Info("starting server", "address", addr, "backend", backend.Name(), "pool", pool.String())
			return srv.Start(ctx)
		},
	}
}
