package config

import (
	"fmt"

	"midway/src/internal/core"
)

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Pool.MaxSize < 1 {
		return fmt.Errorf("pool max_size must be positive, got %d", c.Pool.MaxSize)
	}

	if _, err := core.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging level: %w", err)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format: %q (valid: json, text)", c.Logging.Format)
	}

	if c.Logging.ClockIntervalMS < 1 {
		return fmt.Errorf("clock_interval_ms must be positive, got %d", c.Logging.ClockIntervalMS)
	}

	if f := c.Logging.File; f != nil && f.Enabled {
		if f.Path == "" {
			return fmt.Errorf("file sink requires a path")
		}
		if f.BufferSize < 1 {
			return fmt.Errorf("file sink buffer_size must be positive, got %d", f.BufferSize)
		}
		if f.FlushIntervalMS < 1 {
			return fmt.Errorf("file sink flush_interval_ms must be positive, got %d", f.FlushIntervalMS)
		}
	}

	if h := c.Logging.HTTP; h != nil && h.Enabled {
		if h.URL == "" {
			return fmt.Errorf("http sink requires a url")
		}
		if h.BatchSize < 1 {
			return fmt.Errorf("http sink batch_size must be positive, got %d", h.BatchSize)
		}
		if h.FlushIntervalMS < 1 {
			return fmt.Errorf("http sink flush_interval_ms must be positive, got %d", h.FlushIntervalMS)
		}
	}

	return nil
}
