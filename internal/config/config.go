package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration
type Config struct {
	ListenAddr      string        // address the HTTP server binds to
	DatabasePath    string        // path to the SQLite database file
	TokenSigningKey string        // HMAC key for the identity cookie, required
	LogLevel        string        // debug, info, warn or error
	SessionTTL      time.Duration // validity window for issued sessions
	MaxUploadBytes  int64         // upper bound on a single image upload
	WorkerCount     int           // offload pool size
}

// Defaults. The signing key deliberately has none: running with a
// well-known key would make every identity cookie forgeable.
const (
	DefaultListenAddr     = ":3001"
	DefaultDatabasePath   = "relight.db"
	DefaultSessionTTL     = 48 * time.Hour
	DefaultMaxUploadBytes = 32 << 20
	DefaultLogLevel       = "info"
)

// Load reads configuration from an optional YAML file and RELIGHT_*
// environment variables. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("session_ttl", DefaultSessionTTL)
	v.SetDefault("max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("worker_count", runtime.NumCPU())
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix("RELIGHT")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:      v.GetString("listen_addr"),
		DatabasePath:    v.GetString("database_path"),
		TokenSigningKey: v.GetString("token_signing_key"),
		LogLevel:        v.GetString("log_level"),
		SessionTTL:      v.GetDuration("session_ttl"),
		MaxUploadBytes:  v.GetInt64("max_upload_bytes"),
		WorkerCount:     v.GetInt("worker_count"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.TokenSigningKey == "" {
		return fmt.Errorf("token_signing_key is required (set RELIGHT_TOKEN_SIGNING_KEY)")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1")
	}
	return nil
}
