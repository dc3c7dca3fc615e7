package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/comfforts/logger"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/roipool/internal/nn"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/serialization"
	"github.com/born-ml/roipool/internal/server"
	"github.com/born-ml/roipool/internal/tensor"
)

func forwardCmd() *cli.Command {
	var (
		inputPath string
		outPath   string
	)

	flags := append([]cli.Flag{}, poolFlags()...)
	flags = append(flags, backendFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "JSON request with features and regions (- for stdin)",
			Value:       "-",
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "write output and index map to a .safetensors file",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:  "forward",
		Usage: "Pool regions of a feature map and print the result as JSON",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
			}
			if _, err := LoadConfig(cmd); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			var req server.ForwardRequest
			if err := readJSON(inputPath, &req); err != nil {
				return cli.Exit(fmt.Sprintf("error: read input: %v", err), 1)
			}
			cfg := requestConfig(cmd, req)

			features, err := req.Features.Raw()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: features: %v", err), 1)
			}
			regions, err := serialization.RegionTensor(req.Regions)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			backend, release, err := openBackend()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open backend: %v", err), 1)
			}
			defer release()

			layer, err := nn.NewRoIPool(cfg, backend)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			id := uuid.NewString()
			start := time.Now()
			pooled, err := layer.Forward(
				tensor.New[float32](features, backend),
				tensor.New[int32](regions, backend),
			)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: forward: %v", err), 1)
			}
			l.Info("roi pool forward",
				"id", id,
				"backend", backend.Name(),
				"regions", len(req.Regions),
				"pool", cfg.String(),
				"elapsed", time.Since(start).String())

			if outPath != "" {
				err := serialization.WriteForward(outPath, &serialization.ForwardResult{
					Output:     pooled.Output.Raw(),
					Indices:    pooled.Op.Indices(),
					InputShape: features.Shape(),
					Config:     cfg,
				})
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
				}
				l.Info("wrote forward result", "id", id, "path", outPath)
			}

			output, err := serialization.FloatTensorOf(pooled.Output.Raw())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			resp := server.ForwardResponse{ID: id, Output: output}
			if pooled.Indices != nil {
				indices, err := serialization.IndexTensorOf(pooled.Indices.Raw())
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				resp.Indices = &indices
			}
			return writeJSON(os.Stdout, resp)
		},
	}
}

// requestConfig layers the request's pool settings over the flag values.
// Flags given on the command line take precedence.
func requestConfig(cmd *cli.Command, req server.ForwardRequest) roi.Config {
	cfg := poolConfig()
	if req.PoolHeight != nil && !cmd.IsSet("pool-height") {
		cfg.PoolHeight = *req.PoolHeight
	}
	if req.PoolWidth != nil && !cmd.IsSet("pool-width") {
		cfg.PoolWidth = *req.PoolWidth
	}
	if req.ReturnIndices != nil && !cmd.IsSet("return-indices") {
		cfg.ReturnIndices = *req.ReturnIndices
	}
	return cfg
}

// readJSON decodes the JSON document at path into v. "-" reads stdin.
func readJSON(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
