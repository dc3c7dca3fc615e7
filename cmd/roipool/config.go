package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the roipool configuration file (~/.config/roipool/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Pooling defaults
	PoolHeight    *int64 `yaml:"pool_height"`
	PoolWidth     *int64 `yaml:"pool_width"`
	ReturnIndices *bool  `yaml:"return_indices"`

	// Backend
	Backend      string `yaml:"backend"`
	Workers      *int64 `yaml:"workers"`
	MinChunkSize *int64 `yaml:"min_chunk_size"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBodyBytes  *int64 `yaml:"max_body_bytes"`
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "roipool", "config.yaml")
}

// readConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func readConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfig reads the config file and applies it to every flag the
// command line did not set.
func LoadConfig(c *cli.Command) (Config, error) {
	cfg, err := readConfig(configPath())
	if err != nil {
		return Config{}, err
	}
	applyConfig(c, cfg)
	return cfg, nil
}

// applyConfig applies config file defaults to the shared command variables
// when the corresponding CLI flag was not explicitly set.
func applyConfig(c *cli.Command, cfg Config) {
	if cfg.PoolHeight != nil && !c.IsSet("pool-height") {
		poolHeight = *cfg.PoolHeight
	}
	if cfg.PoolWidth != nil && !c.IsSet("pool-width") {
		poolWidth = *cfg.PoolWidth
	}
	if cfg.ReturnIndices != nil && !c.IsSet("return-indices") {
		returnIndices = *cfg.ReturnIndices
	}
	if cfg.Backend != "" && !c.IsSet("backend") {
		backendName = cfg.Backend
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.MinChunkSize != nil && !c.IsSet("min-chunk") {
		minChunkSize = *cfg.MinChunkSize
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBody *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxBodyBytes
	}
}
