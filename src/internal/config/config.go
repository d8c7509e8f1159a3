package config

// Config is the root configuration for a midway instance.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Pool    PoolConfig    `toml:"pool"`
}

// ServerConfig controls the fasthttp listener.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int64  `toml:"port"`
	ReadTimeoutMS   int64  `toml:"read_timeout_ms"`
	WriteTimeoutMS  int64  `toml:"write_timeout_ms"`
	ShutdownGraceMS int64  `toml:"shutdown_grace_ms"`
}

// PoolConfig controls the request context pool.
type PoolConfig struct {
	MaxSize int64 `toml:"max_size"`
}

// LoggingConfig controls the structured logger and its sink tree.
type LoggingConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Name    string `toml:"name"`

	// Format selects the entry encoding: "json" or "text".
	Format string `toml:"format"`

	// ClockIntervalMS is the coarse timestamp refresh interval.
	ClockIntervalMS int64 `toml:"clock_interval_ms"`

	Console *ConsoleSinkOptions `toml:"console"`
	File    *FileSinkOptions    `toml:"file"`
	HTTP    *HTTPSinkOptions    `toml:"http"`
}

// ConsoleSinkOptions configures the console sink.
type ConsoleSinkOptions struct {
	Enabled bool `toml:"enabled"`
}

// FileSinkOptions configures the buffered file sink.
type FileSinkOptions struct {
	Enabled         bool   `toml:"enabled"`
	Path            string `toml:"path"`
	BufferSize      int64  `toml:"buffer_size"`
	FlushIntervalMS int64  `toml:"flush_interval_ms"`

	// Rotation settings, passed through to lumberjack.
	MaxSizeMB  int64 `toml:"max_size_mb"`
	MaxBackups int64 `toml:"max_backups"`
	MaxAgeDays int64 `toml:"max_age_days"`
	Compress   bool  `toml:"compress"`
}

// HTTPSinkOptions configures the batching HTTP delivery sink.
type HTTPSinkOptions struct {
	Enabled         bool   `toml:"enabled"`
	URL             string `toml:"url"`
	BatchSize       int64  `toml:"batch_size"`
	FlushIntervalMS int64  `toml:"flush_interval_ms"`
	TimeoutSec      int64  `toml:"timeout_sec"`
}
