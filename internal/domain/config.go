package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Store        StoreConfig        `mapstructure:"store"`
	Fingerprint  FingerprintConfig  `mapstructure:"fingerprint"`
	Client       ClientConfig       `mapstructure:"client"`
	Watcher      WatcherConfig      `mapstructure:"watcher"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains the decision log location
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// FingerprintConfig contains timeouts for probing and sampling remote resources
type FingerprintConfig struct {
	HeadTimeout   time.Duration `mapstructure:"head_timeout"`
	SampleTimeout time.Duration `mapstructure:"sample_timeout"`
}

// ClientConfig contains settings for the CLI talking to the server
type ClientConfig struct {
	ServerURL       string        `mapstructure:"server_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ServerBinary    string        `mapstructure:"server_binary"`
	AutoStartServer bool          `mapstructure:"auto_start_server"`
}

// WatcherConfig contains file watcher settings
type WatcherConfig struct {
	Root         string   `mapstructure:"root"`
	ExcludedDirs []string `mapstructure:"excluded_dirs"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // category logs written by the server
}

// TelemetryConfig controls the Prometheus metrics endpoint
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            5050,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/.reduce/downloads.db",
		},
		Fingerprint: FingerprintConfig{
			HeadTimeout:   10 * time.Second,
			SampleTimeout: 20 * time.Second,
		},
		Client: ClientConfig{
			ServerURL:       "http://127.0.0.1:5050",
			RequestTimeout:  10 * time.Second,
			ServerBinary:    "reduce-server",
			AutoStartServer: true,
		},
		Watcher: WatcherConfig{
			Root:         "$HOME",
			ExcludedDirs: []string{".git", "node_modules", ".cache"},
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.reduce/logs",
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "reduce-server",
		},
	}
}
