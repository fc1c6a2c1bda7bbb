package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/reduce-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.reduce")
		v.AddConfigPath("/etc/reduce")
	}

	// Read environment variables
	v.SetEnvPrefix("REDUCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Lists replace the defaults rather than merging element by element
	if v.IsSet("watcher.excluded_dirs") {
		config.Watcher.ExcludedDirs = nil
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnv registers the keys that may be set only through the environment.
// AutomaticEnv alone does not make Unmarshal see keys absent from the file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"server.host",
		"server.port",
		"store.database_path",
		"client.server_url",
		"client.auto_start_server",
		"watcher.root",
		"notification.enabled",
		"notification.method",
		"logging.level",
		"logging.format",
		"logging.output_path",
		"logging.logs_dir",
		"telemetry.enabled",
	} {
		v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)
	config.Watcher.Root = expandPath(config.Watcher.Root)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Replace $HOME first so it resolves even when the variable is unset
	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("database path not configured")
	}

	if config.Fingerprint.HeadTimeout <= 0 || config.Fingerprint.SampleTimeout <= 0 {
		return fmt.Errorf("fingerprint timeouts must be positive")
	}

	if config.Client.ServerURL == "" {
		return fmt.Errorf("client server URL not configured")
	}

	if config.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client request timeout must be positive")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
