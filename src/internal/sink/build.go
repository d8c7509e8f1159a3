package sink

import (
	"fmt"

	"midway/src/internal/config"
	"midway/src/internal/format"
)

// Build constructs the root sink tree from configuration. Multiple enabled
// destinations are composed behind a MultiSink; no destination at all falls
// back to the console.
func Build(cfg *config.LoggingConfig) (Sink, error) {
	formatter, err := format.New(cfg.Format)
	if err != nil {
		return nil, err
	}

	var sinks []Sink

	if cfg.Console != nil && cfg.Console.Enabled {
		sinks = append(sinks, NewConsole(formatter))
	}

	if cfg.File != nil && cfg.File.Enabled {
		fs, err := NewFile(cfg.File, formatter)
		if err != nil {
			return nil, fmt.Errorf("file sink: %w", err)
		}
		sinks = append(sinks, fs)
	}

	if cfg.HTTP != nil && cfg.HTTP.Enabled {
		hs, err := NewHTTP(cfg.HTTP)
		if err != nil {
			return nil, fmt.Errorf("http sink: %w", err)
		}
		sinks = append(sinks, hs)
	}

	switch len(sinks) {
	case 0:
		return NewConsole(formatter), nil
	case 1:
		return sinks[0], nil
	default:
		return NewMulti(sinks...), nil
	}
}
