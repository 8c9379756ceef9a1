package kiosk

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the headless kiosk's YAML configuration.
//
//	server: http://localhost:3000
//	camera: ./faces
//	timeout: 15s
//	auto:
//	  enabled: true
//	  interval: 5s
type Config struct {
	Server  string        `yaml:"server" validate:"required,url"`
	Camera  string        `yaml:"camera" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	Quality int           `yaml:"quality" validate:"gte=1,lte=100"`
	Auto    AutoConfig    `yaml:"auto"`
}

type AutoConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() Config {
	return Config{
		Server:  "http://localhost:3000",
		Timeout: 30 * time.Second,
		Quality: JPEGQuality,
		Auto:    AutoConfig{Interval: DefaultAutoInterval},
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults as they are, which still need a camera before Validate passes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid kiosk config: %w", err)
	}
	if c.Auto.Enabled && (c.Auto.Interval < MinAutoInterval || c.Auto.Interval > MaxAutoInterval) {
		return ErrInvalidInterval
	}
	return nil
}
