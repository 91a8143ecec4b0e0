package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// BackendConfig points at the LMS REST API.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`           // service token, usually set via COMMHUB_BACKEND_TOKEN
	TimeoutSeconds int    `toml:"timeout_seconds"` // per-request timeout
	PageSize       int    `toml:"page_size"`       // default collection page size
}

// PushConfig points at the LMS push channel.
type PushConfig struct {
	URL               string `toml:"url"` // ws:// or wss:// endpoint, dialed as-is; collections multiplex over it
	MinBackoffSeconds int    `toml:"min_backoff_seconds"`
	MaxBackoffSeconds int    `toml:"max_backoff_seconds"`
}

// AuthConfig is the gateway's own access gate, not LMS authentication.
type AuthConfig struct {
	PasswordHash string `toml:"password_hash"` // bcrypt hash of the console passphrase
	JWTSecret    string `toml:"jwt_secret"`    // usually set via COMMHUB_JWT_SECRET
	SessionHours int    `toml:"session_hours"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Backend BackendConfig `toml:"backend"`
	Push    PushConfig    `toml:"push"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
}

// LoadConfig reads the TOML config file, then applies .env / environment
// overrides. A missing file is fine: defaults plus environment variables are
// enough to run.
func LoadConfig(filepath string) (*Config, error) {
	var config Config

	// Defaults
	config.Server.Port = 3000
	config.Server.LogLevel = "info"
	config.Backend.TimeoutSeconds = 15
	config.Backend.PageSize = 10
	config.Push.MinBackoffSeconds = 1
	config.Push.MaxBackoffSeconds = 60
	config.Auth.SessionHours = 24
	config.Storage.DataDir = "./data"

	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	if v := os.Getenv("COMMHUB_BACKEND_URL"); v != "" {
		config.Backend.BaseURL = v
	}
	if v := os.Getenv("COMMHUB_BACKEND_TOKEN"); v != "" {
		config.Backend.Token = v
	}
	if v := os.Getenv("COMMHUB_PUSH_URL"); v != "" {
		config.Push.URL = v
	}
	if v := os.Getenv("COMMHUB_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the parts of the config the gateway cannot run without.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid backend base_url: %w", err)
	}
	if c.Push.URL == "" {
		return fmt.Errorf("push url is required")
	}
	u, err := url.Parse(c.Push.URL)
	if err != nil {
		return fmt.Errorf("invalid push url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("push url scheme must be ws or wss, got %q", u.Scheme)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required (set COMMHUB_JWT_SECRET)")
	}
	if c.Backend.PageSize < 1 {
		return fmt.Errorf("backend page_size must be positive")
	}
	return nil
}

// RequestTimeout returns the backend per-request timeout.
func (c *BackendConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinBackoff returns the reconnect backoff floor.
func (c *PushConfig) MinBackoff() time.Duration {
	return time.Duration(c.MinBackoffSeconds) * time.Second
}

// MaxBackoff returns the reconnect backoff ceiling.
func (c *PushConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSeconds) * time.Second
}

// SessionTTL returns the gateway session lifetime.
func (c *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionHours) * time.Hour
}
