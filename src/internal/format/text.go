package format

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"midway/src/internal/core"
)

// TextFormatter produces human-readable single-line records:
//
//	2006-01-02T15:04:05.000 INFO  midway: request complete request_id=42 status=200
//
// Fields are appended as key=value pairs in sorted key order so output is
// stable across runs.
type TextFormatter struct {
	timestampFormat string
}

// NewText creates a text formatter.
func NewText() *TextFormatter {
	return &TextFormatter{
		timestampFormat: "2006-01-02T15:04:05.000",
	}
}

func (f *TextFormatter) Format(entry core.LogEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(entry.Time.Format(f.timestampFormat))
	buf.WriteByte(' ')
	buf.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(entry.Level.String())))
	buf.WriteByte(' ')
	if entry.Name != "" {
		buf.WriteString(entry.Name)
		buf.WriteString(": ")
	}
	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			buf.WriteByte(' ')
			buf.WriteString(k)
			buf.WriteByte('=')
			fmt.Fprintf(&buf, "%v", entry.Fields[k])
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (f *TextFormatter) Name() string {
	return "text"
}
