package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/draped/internal/flagx"
	"github.com/dmitrijs2005/draped/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "2.5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIOrigin      string         `json:"api_origin"`
	GoogleClientID *string        `json:"google_client_id"`
	SessionDBPath  string         `json:"session_db_path"`
	PollInterval   timex.Duration `json:"poll_interval"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	UploadTimeout  timex.Duration `json:"upload_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c or -config (flagx.JsonConfigFlags); without
// one nothing is loaded. Only keys present with a non-zero value override
// earlier sources, except google_client_id which may be set to "" to turn
// Google sign-in off. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIOrigin != "" {
		cfg.APIOrigin = jc.APIOrigin
	}
	if jc.GoogleClientID != nil {
		cfg.GoogleClientID = *jc.GoogleClientID
	}
	if jc.SessionDBPath != "" {
		cfg.SessionDBPath = jc.SessionDBPath
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UploadTimeout.Duration > 0 {
		cfg.UploadTimeout = jc.UploadTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
