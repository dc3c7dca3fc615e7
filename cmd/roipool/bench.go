package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/comfforts/logger"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/tensor"
)

// benchShape describes the synthetic workload of a benchmark run.
type benchShape struct {
	Batch, Height, Width, Channels int
	Regions                        int
}

func benchCmd() *cli.Command {
	var (
		batch      int64
		height     int64
		width      int64
		channels   int64
		regions    int64
		warmupRuns int64
		benchRuns  int64
	)

	flags := append([]cli.Flag{}, poolFlags()...)
	flags = append(flags, backendFlags()...)
	flags = append(flags,
		&cli.Int64Flag{Name: "batch", Usage: "feature map batch size", Value: 2, Destination: &batch},
		&cli.Int64Flag{Name: "height", Usage: "feature map height", Value: 64, Destination: &height},
		&cli.Int64Flag{Name: "width", Usage: "feature map width", Value: 64, Destination: &width},
		&cli.Int64Flag{Name: "channels", Usage: "feature map channels", Value: 256, Destination: &channels},
		&cli.Int64Flag{Name: "regions", Aliases: []string{"n"}, Usage: "number of regions", Value: 128, Destination: &regions},
		&cli.Int64Flag{Name: "warmup", Usage: "number of warmup runs", Value: 1, Destination: &warmupRuns},
		&cli.Int64Flag{Name: "runs", Usage: "number of benchmark runs", Value: 5, Destination: &benchRuns},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Benchmark forward and backward on synthetic data",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
			}
			if _, err := LoadConfig(cmd); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if benchRuns <= 0 {
				return cli.Exit("error: --runs must be positive", 1)
			}
			shape := benchShape{
				Batch: int(batch), Height: int(height), Width: int(width),
				Channels: int(channels), Regions: int(regions),
			}
			pool := poolConfig()

			features, rois, err := syntheticInputs(shape)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			backend, release, err := openBackend()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open backend: %v", err), 1)
			}
			defer release()

			runID := uuid.NewString()
			fmt.Println("=== RoI Pool Benchmark ===")
			fmt.Printf("Run:      %s\n", runID)
			fmt.Printf("Backend:  %s\n", backend.Name())
			fmt.Printf("CPUs:     %d\n", runtime.NumCPU())
			fmt.Printf("Features: %v\n", features.Shape())
			fmt.Printf("Regions:  %d\n", shape.Regions)
			fmt.Printf("Pool:     %dx%d\n", pool.PoolHeight, pool.PoolWidth)
			fmt.Println()

			run := func() (fwd, bwd time.Duration, err error) {
				start := time.Now()
				output, indices, err := backend.RoIPool(features, rois, pool.PoolHeight, pool.PoolWidth)
				if err != nil {
					return 0, 0, err
				}
				fwd = time.Since(start)

				start = time.Now()
				if _, err := backend.RoIPoolBackward(output, indices, features.Shape()); err != nil {
					return 0, 0, err
				}
				return fwd, time.Since(start), nil
			}

			for i := range int(warmupRuns) {
				l.Info("warmup run", "run_id", runID, "run", i+1)
				if _, _, err := run(); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run %d: %v", i+1, err), 1)
				}
			}

			fwdMS := make([]float64, 0, benchRuns)
			bwdMS := make([]float64, 0, benchRuns)
			fmt.Printf("%-6s %12s %12s\n", "Run", "Forward", "Backward")
			for i := range int(benchRuns) {
				fwd, bwd, err := run()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: benchmark run %d: %v", i+1, err), 1)
				}
				fmt.Printf("%-6d %12s %12s\n", i+1, fwd.Round(time.Microsecond), bwd.Round(time.Microsecond))
				fwdMS = append(fwdMS, float64(fwd)/float64(time.Millisecond))
				bwdMS = append(bwdMS, float64(bwd)/float64(time.Millisecond))
			}

			fwdMean, fwdStd := stat.MeanStdDev(fwdMS, nil)
			bwdMean, bwdStd := stat.MeanStdDev(bwdMS, nil)
			fmt.Printf("\n%-6s %9.3f ms %9.3f ms\n", "Mean", fwdMean, bwdMean)
			fmt.Printf("%-6s %9.3f ms %9.3f ms\n", "Std", nanToZero(fwdStd), nanToZero(bwdStd))

			l.Info("benchmark finished",
				"run_id", runID,
				"backend", backend.Name(),
				"forward_mean_ms", fwdMean,
				"backward_mean_ms", bwdMean)
			return nil
		},
	}
}

// syntheticInputs draws a uniform feature map and random regions that lie
// inside it.
func syntheticInputs(s benchShape) (features, rois *tensor.RawTensor, err error) {
	if s.Batch <= 0 || s.Height <= 0 || s.Width <= 0 || s.Channels <= 0 || s.Regions < 0 {
		return nil, nil, fmt.Errorf("invalid benchmark shape %+v", s)
	}

	features, err = tensor.NewRaw(tensor.Shape{s.Batch, s.Height, s.Width, s.Channels}, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, nil, err
	}
	values := distuv.Uniform{Min: -1, Max: 1}
	data := features.AsFloat32()
	for i := range data {
		data[i] = float32(values.Rand())
	}

	rois, err = tensor.NewRaw(tensor.Shape{s.Regions, roi.RecordSize}, tensor.Int32, tensor.CPU)
	if err != nil {
		return nil, nil, err
	}
	unit := distuv.Uniform{Min: 0, Max: 1}
	pick := func(n int) int32 {
		return int32(math.Min(math.Floor(unit.Rand()*float64(n)), float64(n-1)))
	}
	records := rois.AsInt32()
	for r := 0; r < s.Regions; r++ {
		top, left := pick(s.Height), pick(s.Width)
		bottom := top + pick(s.Height-int(top))
		right := left + pick(s.Width-int(left))
		copy(records[r*roi.RecordSize:], []int32{pick(s.Batch), top, left, bottom, right})
	}
	return features, rois, nil
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
