package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/comfforts/logger"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/roipool/internal/nn"
	"github.com/born-ml/roipool/internal/serialization"
	"github.com/born-ml/roipool/internal/server"
	"github.com/born-ml/roipool/internal/tensor"
)

const tensorInputGrad = "input_grad"

func backwardCmd() *cli.Command {
	var (
		forwardPath string
		gradPath    string
		outPath     string
	)

	flags := append([]cli.Flag{}, backendFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "forward",
			Aliases:     []string{"f"},
			Usage:       ".safetensors file written by forward --out",
			Required:    true,
			Destination: &forwardPath,
		},
		&cli.StringFlag{
			Name:        "grad",
			Aliases:     []string{"g"},
			Usage:       "JSON output gradient {shape, data} (default: all ones)",
			Destination: &gradPath,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "write the feature-map gradient to a .safetensors file",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:  "backward",
		Usage: "Route an output gradient back to the feature map through a stored index map",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
			}
			if _, err := LoadConfig(cmd); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			fwd, err := serialization.ReadForward(forwardPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %s: %v", forwardPath, err), 1)
			}

			grad, err := loadGradient(gradPath, fwd.Indices.Shape())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: gradient: %v", err), 1)
			}

			backend, release, err := openBackend()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open backend: %v", err), 1)
			}
			defer release()

			layer, err := nn.NewRoIPool(fwd.Config, backend)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			id := uuid.NewString()
			start := time.Now()
			inputGrad, err := layer.Backward(
				tensor.New[float32](grad, backend),
				tensor.New[int32](fwd.Indices, backend),
				fwd.InputShape,
			)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: backward: %v", err), 1)
			}
			l.Info("roi pool backward",
				"id", id,
				"backend", backend.Name(),
				"input_shape", fwd.InputShape.String(),
				"elapsed", time.Since(start).String())

			if outPath != "" {
				tensors := map[string]*tensor.RawTensor{tensorInputGrad: inputGrad.Raw()}
				if err := serialization.WriteFile(outPath, tensors, nil); err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
				}
				l.Info("wrote input gradient", "id", id, "path", outPath)
			}

			out, err := serialization.FloatTensorOf(inputGrad.Raw())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return writeJSON(os.Stdout, server.BackwardResponse{ID: id, InputGrad: out})
		},
	}
}

// loadGradient reads a JSON gradient from path, or returns ones shaped
// like the index map when path is empty.
func loadGradient(path string, shape tensor.Shape) (*tensor.RawTensor, error) {
	if path == "" {
		ones, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		if err != nil {
			return nil, err
		}
		data := ones.AsFloat32()
		for i := range data {
			data[i] = 1
		}
		return ones, nil
	}
	var ft serialization.FloatTensor
	if err := readJSON(path, &ft); err != nil {
		return nil, err
	}
	return ft.Raw()
}
