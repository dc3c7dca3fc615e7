package main

import (
	"github.com/urfave/cli/v3"

	"github.com/born-ml/roipool/internal/parallel"
	"github.com/born-ml/roipool/internal/roi"
)

var (
	poolHeight    int64
	poolWidth     int64
	returnIndices bool
	backendName   string
	workers       int64
	minChunkSize  int64
	configFile    string
)

func poolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "pool-height",
			Aliases:     []string{"ph"},
			Usage:       "number of bin rows per region",
			Value:       2,
			Destination: &poolHeight,
		},
		&cli.Int64Flag{
			Name:        "pool-width",
			Aliases:     []string{"pw"},
			Usage:       "number of bin columns per region",
			Value:       2,
			Destination: &poolWidth,
		},
		&cli.BoolFlag{
			Name:        "return-indices",
			Usage:       "include the index map in the output",
			Destination: &returnIndices,
		},
	}
}

func backendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (cpu, webgpu)",
			Value:       "cpu",
			Destination: &backendName,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "CPU worker goroutines (0 = one per CPU, 1 = sequential)",
			Destination: &workers,
		},
		&cli.Int64Flag{
			Name:        "min-chunk",
			Usage:       "minimum work units per CPU goroutine",
			Value:       16,
			Destination: &minChunkSize,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
	}
}

func poolConfig() roi.Config {
	return roi.Config{
		PoolHeight:    int(poolHeight),
		PoolWidth:     int(poolWidth),
		ReturnIndices: returnIndices,
	}
}

func parallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	if workers > 0 {
		cfg.NumWorkers = int(workers)
		cfg.Enabled = workers > 1
	}
	if minChunkSize > 0 {
		cfg.MinChunkSize = int(minChunkSize)
	}
	return cfg
}
