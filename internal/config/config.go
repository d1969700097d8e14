package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cachemgr/internal/cache"
	cmerrors "cachemgr/pkg/errors"
)

type Config struct {
	// Cache Config
	Capacity      int    `yaml:"capacity"`
	Buckets       int    `yaml:"buckets"`
	Hash          string `yaml:"hash"`
	OptimisticGet bool   `yaml:"optimistic_get"`

	// Logging Config
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Server Config
	Listen  string `yaml:"listen"`
	Metrics bool   `yaml:"metrics"`

	Stress StressConfig `yaml:"stress"`
}

// StressConfig sizes the concurrent reader/writer workload.
type StressConfig struct {
	Writers      int   `yaml:"writers"`
	Readers      int   `yaml:"readers"`
	OpsPerWorker int   `yaml:"ops_per_worker"`
	KeySpace     int   `yaml:"key_space"`
	DeleteEvery  int   `yaml:"delete_every"`
	Seed         int64 `yaml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Capacity: 50,
		Hash:     cache.HashNameMurmur3,
		LogLevel: "info",
		Listen:   ":8080",
		Metrics:  true,
		Stress: StressConfig{
			Writers:      4,
			Readers:      8,
			OpsPerWorker: 1000,
			KeySpace:     100,
			DeleteEvery:  200,
		},
	}
}

// FromFile reads a YAML file on top of Default and validates the result.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that has a constrained range.
func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be >= 1, got %d", cmerrors.ErrInvalidConfig, c.Capacity)
	}
	if c.Capacity > cache.MaxCapacity {
		return fmt.Errorf("%w: capacity must be <= %d, got %d", cmerrors.ErrInvalidConfig, cache.MaxCapacity, c.Capacity)
	}
	if c.Buckets < 0 {
		return fmt.Errorf("%w: buckets must be >= 0, got %d", cmerrors.ErrInvalidConfig, c.Buckets)
	}
	if c.Buckets > cache.MaxCapacity {
		return fmt.Errorf("%w: buckets must be <= %d, got %d", cmerrors.ErrInvalidConfig, cache.MaxCapacity, c.Buckets)
	}
	if _, err := cache.HashByName(c.Hash); err != nil {
		return fmt.Errorf("%w: unknown hash %q", cmerrors.ErrInvalidConfig, c.Hash)
	}

	s := c.Stress
	if s.Writers < 0 || s.Readers < 0 || s.Writers+s.Readers == 0 {
		return fmt.Errorf("%w: stress needs at least one worker", cmerrors.ErrInvalidConfig)
	}
	if s.OpsPerWorker < 0 {
		return fmt.Errorf("%w: ops_per_worker must be >= 0", cmerrors.ErrInvalidConfig)
	}
	if s.KeySpace < 1 {
		return fmt.Errorf("%w: key_space must be >= 1", cmerrors.ErrInvalidConfig)
	}
	if s.DeleteEvery < 0 {
		return fmt.Errorf("%w: delete_every must be >= 0", cmerrors.ErrInvalidConfig)
	}
	return nil
}
