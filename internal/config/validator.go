package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.Producers < 0 {
		return fmt.Errorf("producers must be >= 0")
	}
	if cfg.ItemsPerProducer < 0 {
		return fmt.Errorf("items_per_producer must be >= 0")
	}
	if cfg.PollTimeout <= 0 {
		return fmt.Errorf("poll_timeout must be > 0")
	}
	if cfg.Backoff < 0 {
		return fmt.Errorf("backoff must be >= 0")
	}
	if cfg.BackoffJitter < 0 {
		return fmt.Errorf("backoff_jitter must be >= 0")
	}
	if cfg.Deadline < 0 {
		return fmt.Errorf("deadline must be >= 0")
	}

	// Validate queue
	if cfg.Queue.Kind == "" {
		cfg.Queue.Kind = QueueUnbounded
	}
	switch cfg.Queue.Kind {
	case QueueUnbounded:
	case QueueRing:
		c := cfg.Queue.Capacity
		if c == 0 || c&(c-1) != 0 {
			return fmt.Errorf("queue.capacity must be a power of 2 and > 0, got %d", c)
		}
	default:
		return fmt.Errorf("queue.kind must be one of %s, %s", QueueUnbounded, QueueRing)
	}

	// Validate logging
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}

	return nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", name, err)
	}
	return level, nil
}
