// Package roi holds the region model shared by the RoI pooling kernels:
// region records, adaptive bin quantization, index-map encoding, the
// pooling configuration and the error taxonomy.
package roi

import "fmt"

// Config is the static configuration of a RoI pooling operator.
type Config struct {
	PoolHeight int `yaml:"pool_height" json:"pool_height"`
	PoolWidth  int `yaml:"pool_width" json:"pool_width"`

	// ReturnIndices controls whether the index map is handed back to the
	// caller. The kernel always computes it.
	ReturnIndices bool `yaml:"return_indices" json:"return_indices"`
}

// DefaultConfig returns a 2x2 pool that discards the index map.
func DefaultConfig() Config {
	return Config{PoolHeight: 2, PoolWidth: 2}
}

// Validate checks that both pool dimensions are positive.
func (c Config) Validate() error {
	if c.PoolHeight <= 0 || c.PoolWidth <= 0 {
		return ConfigError("roipool", "pool size %dx%d must be positive", c.PoolHeight, c.PoolWidth)
	}
	return nil
}

// String returns a string representation of the configuration.
func (c Config) String() string {
	return fmt.Sprintf("RoIPool(pool_height=%d, pool_width=%d)", c.PoolHeight, c.PoolWidth)
}
