// Package parallel partitions independent kernel work units across goroutines.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`               // Whether parallel execution is enabled.
	NumWorkers   int  `yaml:"num_workers" json:"num_workers"`       // Number of worker goroutines to use.
	MinChunkSize int  `yaml:"min_chunk_size" json:"min_chunk_size"` // Minimum units per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// Sequential returns a configuration that runs every unit on the caller's goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// Validate rejects configurations that cannot schedule any work.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("parallel: num_workers must be positive, got %d", c.NumWorkers)
	}
	if c.MinChunkSize <= 0 {
		return fmt.Errorf("parallel: min_chunk_size must be positive, got %d", c.MinChunkSize)
	}
	return nil
}

// Chunks returns the number of goroutines For would start for n units.
func (c Config) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	if !c.Enabled || n < c.MinChunkSize || c.NumWorkers <= 1 {
		return 1
	}
	size := c.chunkSize(n)
	return (n + size - 1) / size
}

func (c Config) chunkSize(n int) int {
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize)
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
//
// Units are split into contiguous chunks; f must only write state owned by unit i.
func For(n int, f func(i int), cfg Config) {
	if cfg.Chunks(n) <= 1 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	size := cfg.chunkSize(n)

	for start := 0; start < n; start += size {
		end := min(start+size, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForPairs iterates the outer x inner grid, e.g. (region, channel) units.
func ForPairs(outer, inner int, f func(o, i int), cfg Config) {
	if inner <= 0 {
		return
	}
	For(outer*inner, func(k int) {
		f(k/inner, k%inner)
	}, cfg)
}
