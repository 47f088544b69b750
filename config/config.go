// Package config loads runtime settings from a YAML file and the environment.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/on-the-ground/composable_go/effects/log"
	"gopkg.in/yaml.v3"
)

// Config is the full set of runtime settings.
type Config struct {
	Scheduler SchedulerConfig `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Tracing   TracingConfig   `yaml:"tracing" envPrefix:"TRACING_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
}

// SchedulerConfig sizes the worker queue effect output is delivered on.
type SchedulerConfig struct {
	BufferSize int `yaml:"buffer_size" env:"BUFFER_SIZE"`
	NumWorkers int `yaml:"num_workers" env:"NUM_WORKERS"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

type StoreConfig struct {
	// RecordActions logs every processed action at debug level.
	RecordActions bool `yaml:"record_actions" env:"RECORD_ACTIONS"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{BufferSize: 64, NumWorkers: 1},
		Log:       LogConfig{Level: string(log.LogInfo)},
		Tracing:   TracingConfig{Enabled: true},
	}
}

// LogLevel returns the configured log level.
func (c Config) LogLevel() log.LogLevel {
	return log.LogLevel(c.Log.Level)
}

// Normalize clamps sizes to at least one.
func (c Config) Normalize() Config {
	c.Scheduler.BufferSize = max(c.Scheduler.BufferSize, 1)
	c.Scheduler.NumWorkers = max(c.Scheduler.NumWorkers, 1)
	if c.Log.Level == "" {
		c.Log.Level = string(log.LogInfo)
	}
	return c
}

// Load starts from Default, applies the YAML file at path if path is not
// empty, then applies environment variables prefixed with EnvPrefix.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.Normalize(), nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
