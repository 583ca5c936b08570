// Package config holds the pinochle settings read from pinochle.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Limits  Limits  `yaml:"limits"`
	Logging Logging `yaml:"logging"`
	Store   Store   `yaml:"store"`
	Shell   Shell   `yaml:"shell"`
	Batch   Batch   `yaml:"batch"`
}

// Limits bound a single evaluation. 0 means unbounded steps and the
// interpreter's default stack.
type Limits struct {
	MaxSteps int `yaml:"max_steps"`
	MaxStack int `yaml:"max_stack"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

type Store struct {
	Path string `yaml:"path"` // sqlite file; "" keeps nothing
}

type Shell struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
}

type Batch struct {
	Workers int `yaml:"workers"`
}

func Default() *Config {
	return &Config{
		Limits:  Limits{MaxSteps: 0, MaxStack: 1 << 24},
		Logging: Logging{Level: "info", Format: "console"},
		Store:   Store{Path: "pinochle.db"},
		Shell:   Shell{Prompt: "nock> ", HistoryFile: ".pinochle_history"},
		Batch:   Batch{Workers: 4},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (me *Config) applyEnv() {
	if path, ok := os.LookupEnv("PINOCHLE_STORE"); ok {
		me.Store.Path = path
	}
	if level := os.Getenv("PINOCHLE_LOG_LEVEL"); level != "" {
		me.Logging.Level = level
	}
}

func (me *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(me)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (me *Config) Validate() error {
	var errs []error
	if me.Limits.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("limits.max_steps %d is negative", me.Limits.MaxSteps))
	}
	if me.Limits.MaxStack < 0 {
		errs = append(errs, fmt.Errorf("limits.max_stack %d is negative", me.Limits.MaxStack))
	}
	switch me.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", me.Logging.Level))
	}
	switch me.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not console or json", me.Logging.Format))
	}
	if me.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be at least 1, got %d", me.Batch.Workers))
	}
	return errors.Join(errs...)
}
