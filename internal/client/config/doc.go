// Package config loads runtime configuration for the Draped CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a dotenv file (-env, default ".env") and the process
//     environment, DRAPED_API_URL, DRAPED_GOOGLE_CLIENT_ID,
//     DRAPED_SESSION_DB, DRAPED_LOG_LEVEL (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string    API origin
//	-i int       job polling interval (milliseconds)
//	-db string   session database file
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2.5s" or integer nanoseconds:
//
//	{
//	  "api_origin": "http://localhost:8081",
//	  "google_client_id": "",
//	  "session_db_path": "draped.db",
//	  "poll_interval": "2.5s",
//	  "request_timeout": "30s",
//	  "upload_timeout": "60s",
//	  "log_level": "info"
//	}
package config
