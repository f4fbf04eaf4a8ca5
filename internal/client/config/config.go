package config

import (
	"strings"
	"time"
)

// Config holds runtime settings for the Draped CLI.
//
// Fields:
//   - APIOrigin: scheme://host[:port] of the API, no trailing slash.
//   - GoogleClientID: enables Google sign-in when set.
//   - SessionDBPath: SQLite file holding the signed-in session.
//   - PollInterval: job status polling period.
//   - RequestTimeout, UploadTimeout: per-request limits (uploads get longer).
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIOrigin      string
	GoogleClientID string
	SessionDBPath  string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIOrigin = "http://localhost:8081"
	c.GoogleClientID = ""
	c.SessionDBPath = "draped.db"
	c.PollInterval = 2500 * time.Millisecond
	c.RequestTimeout = 30 * time.Second
	c.UploadTimeout = 60 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and .env file), JSON (if present) and command-line flags
// (if present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	c.APIOrigin = strings.TrimRight(strings.TrimSpace(c.APIOrigin), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}
