package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	QueueUnbounded = "unbounded"
	QueueRing      = "ring"
)

// Config represents the complete run configuration
type Config struct {
	Producers        int           `yaml:"producers"`
	ItemsPerProducer int           `yaml:"items_per_producer"`
	PollTimeout      time.Duration `yaml:"poll_timeout"`   // consumer wait per pop
	Backoff          time.Duration `yaml:"backoff"`        // consumer sleep after an empty pop
	BackoffJitter    time.Duration `yaml:"backoff_jitter"` // random extra sleep, 0 disables
	Deadline         time.Duration `yaml:"deadline"`       // 0 waits forever
	Queue            QueueConfig   `yaml:"queue"`
	Log              LogConfig     `yaml:"log"`
}

// QueueConfig selects the item queue backend
type QueueConfig struct {
	Kind     string `yaml:"kind"`     // unbounded, ring
	Capacity uint64 `yaml:"capacity"` // ring only, power of two
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Producers:        4,
		ItemsPerProducer: 50,
		PollTimeout:      time.Second,
		Backoff:          100 * time.Millisecond,
		BackoffJitter:    10 * time.Millisecond,
		Queue: QueueConfig{
			Kind:     QueueUnbounded,
			Capacity: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file on top of Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of Default
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
