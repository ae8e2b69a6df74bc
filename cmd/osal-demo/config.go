package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the demo configuration, loadable from TOML. Zero values are
// replaced by defaults.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Queue    QueueConfig    `toml:"queue"`
	Producer ProducerConfig `toml:"producer"`
	Status   StatusConfig   `toml:"status"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type QueueConfig struct {
	Capacity uint32 `toml:"capacity"`
}

type ProducerConfig struct {
	PeriodMS uint32 `toml:"period_ms"`
}

type StatusConfig struct {
	PeriodMS uint32 `toml:"period_ms"`
}

type MetricsConfig struct {
	Listen string `toml:"listen"`
}

// DefaultConfig returns the built-in settings: an 8-deep queue, a 500 ms
// producer, a 1 s status timer, and no metrics listener.
func DefaultConfig() Config {
	return Config{
		Log:      LogConfig{Level: "info"},
		Queue:    QueueConfig{Capacity: 8},
		Producer: ProducerConfig{PeriodMS: 500},
		Status:   StatusConfig{PeriodMS: 1000},
	}
}

// LoadConfig overlays a TOML file on the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Queue.Capacity == 0 {
		cfg.Queue.Capacity = 8
	}
	if cfg.Producer.PeriodMS == 0 {
		cfg.Producer.PeriodMS = 500
	}
	if cfg.Status.PeriodMS == 0 {
		cfg.Status.PeriodMS = 1000
	}
	return cfg, nil
}
