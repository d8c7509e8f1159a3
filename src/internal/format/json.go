package format

import (
	"encoding/json"
	"fmt"
	"time"

	"midway/src/internal/core"
)

// JSONFormatter produces structured one-line JSON records. Entry fields are
// merged into the top-level object; the reserved keys (time, level, name,
// msg) always win over same-named fields.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(entry core.LogEntry) ([]byte, error) {
	output := f.toMap(entry)

	result, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	return append(result, '\n'), nil
}

// FormatBatch encodes a slice of entries as a single JSON array. Used by the
// HTTP sink to send one request per flush window.
func (f *JSONFormatter) FormatBatch(entries []core.LogEntry) ([]byte, error) {
	batch := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		batch = append(batch, f.toMap(entry))
	}

	result, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	return result, nil
}

func (f *JSONFormatter) toMap(entry core.LogEntry) map[string]any {
	output := make(map[string]any, len(entry.Fields)+4)

	for k, v := range entry.Fields {
		output[k] = v
	}

	// Reserved keys take precedence over entry fields
	output["time"] = entry.Time.Format(time.RFC3339Nano)
	output["level"] = int(entry.Level)
	output["msg"] = entry.Message
	if entry.Name != "" {
		output["name"] = entry.Name
	}

	return output
}

func (f *JSONFormatter) Name() string {
	return "json"
}
