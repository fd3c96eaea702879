// Package config loads the editor configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL       = "http://localhost:8080"
	DefaultListenPort      = 9092
	DefaultLogLevel        = "info"
	DefaultHistoryInterval = 5 * time.Second
	DefaultHistoryCapacity = 5
	DefaultPollInterval    = time.Second
)

var ErrInvalidConfig = errors.New("invalid configuration")

type History struct {
	Interval time.Duration `yaml:"interval"`
	Capacity int           `yaml:"capacity" validate:"min=1,max=100"`
}

// Config is the flowcanvas.yaml file. Command line flags override it.
type Config struct {
	ServerURL          string        `yaml:"server_url"           validate:"required,url"`
	ListenPort         int           `yaml:"listen_port"          validate:"min=1,max=65535"`
	DraftsURL          string        `yaml:"drafts_url"`
	LogLevel           string        `yaml:"log_level"            validate:"omitempty,oneof=debug info warn warning error"`
	History            History       `yaml:"history"`
	StatusPollInterval time.Duration `yaml:"status_poll_interval"`
	AllowCycles        bool          `yaml:"allow_cycles"`
}

func Default() Config {
	return Config{
		ServerURL:  DefaultServerURL,
		ListenPort: DefaultListenPort,
		LogLevel:   DefaultLogLevel,
		History: History{
			Interval: DefaultHistoryInterval,
			Capacity: DefaultHistoryCapacity,
		},
		StatusPollInterval: DefaultPollInterval,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault falls back to the defaults when path is empty or missing.
// A file that exists but cannot be parsed is still an error.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.History.Interval < 100*time.Millisecond {
		return fmt.Errorf("%w: history.interval must be at least 100ms, got %s", ErrInvalidConfig, c.History.Interval)
	}

	if c.StatusPollInterval < 100*time.Millisecond {
		return fmt.Errorf("%w: status_poll_interval must be at least 100ms, got %s", ErrInvalidConfig, c.StatusPollInterval)
	}

	return nil
}
