package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutMS:   10000,
			WriteTimeoutMS:  10000,
			ShutdownGraceMS: 5000,
		},
		Logging: LoggingConfig{
			Enabled:         true,
			Level:           "info",
			Name:            "midway",
			Format:          "text",
			ClockIntervalMS: 10,
			Console: &ConsoleSinkOptions{
				Enabled: true,
			},
		},
		Pool: PoolConfig{
			MaxSize: 128,
		},
	}
}

// Load builds the configuration from defaults, the TOML config file,
// MIDWAY_* environment variables and CLI arguments, in ascending precedence.
func Load(cliArgs []string) (*Config, error) {
	configPath := GetConfigPath()

	cfg, err := lconfig.NewBuilder().
		WithDefaults(defaults()).
		WithEnvPrefix("MIDWAY_").
		WithFile(configPath).
		WithArgs(cliArgs).
		WithSources(
			lconfig.SourceCLI,
			lconfig.SourceEnv,
			lconfig.SourceFile,
			lconfig.SourceDefault,
		).
		Build()

	if err != nil {
		if !strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	finalConfig := &Config{}
	if err := cfg.Scan(finalConfig); err != nil {
		return nil, fmt.Errorf("failed to scan config: %w", err)
	}

	return finalConfig, finalConfig.validate()
}

// GetConfigPath resolves the config file location from the environment,
// falling back to ~/.config/midway.toml.
func GetConfigPath() string {
	if configFile := os.Getenv("MIDWAY_CONFIG_FILE"); configFile != "" {
		if filepath.IsAbs(configFile) {
			return configFile
		}
		if configDir := os.Getenv("MIDWAY_CONFIG_DIR"); configDir != "" {
			return filepath.Join(configDir, configFile)
		}
		return configFile
	}

	if configDir := os.Getenv("MIDWAY_CONFIG_DIR"); configDir != "" {
		return filepath.Join(configDir, "midway.toml")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "midway.toml")
	}

	return "midway.toml"
}
