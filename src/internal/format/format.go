package format

import (
	"fmt"

	"midway/src/internal/core"
)

// Formatter transforms a LogEntry into its wire representation.
type Formatter interface {
	// Format returns the encoded entry, terminated with a newline.
	Format(entry core.LogEntry) ([]byte, error)

	// Name returns the formatter type name.
	Name() string
}

// New creates a Formatter by name.
func New(name string) (Formatter, error) {
	switch name {
	case "", "text":
		return NewText(), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}
