package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/draped/internal/flagx"
)

// Environment variables read by parseEnv.
const (
	EnvAPIURL         = "DRAPED_API_URL"
	EnvGoogleClientID = "DRAPED_GOOGLE_CLIENT_ID"
	EnvSessionDB      = "DRAPED_SESSION_DB"
	EnvLogLevel       = "DRAPED_LOG_LEVEL"
)

// parseEnv overlays Config with environment variables. A dotenv file (path
// from -env, default ".env") is loaded first; variables already set in the
// process win over the file. A missing file is ignored, a malformed one
// panics like a malformed JSON config does.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(flagx.EnvFileFlag()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	if v, ok := os.LookupEnv(EnvAPIURL); ok && v != "" {
		cfg.APIOrigin = v
	}
	if v, ok := os.LookupEnv(EnvGoogleClientID); ok {
		cfg.GoogleClientID = v
	}
	if v, ok := os.LookupEnv(EnvSessionDB); ok && v != "" {
		cfg.SessionDBPath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
}
