package core

import (
	"time"
)

// LogEntry represents a single structured log record flowing through the
// sink pipeline. Once handed to a sink it is treated as immutable.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   Level          `json:"level"`
	Name    string         `json:"name,omitempty"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}
