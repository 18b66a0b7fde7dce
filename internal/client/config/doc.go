// Package config loads runtime configuration for the huntlog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend API base URL
//	-b string   session storage backend (sqlite|redis|memory)
//	-s string   SQLite database path
//	-r string   Redis address
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://localhost:8080/api/v1",
//	  "storage_backend": "sqlite",
//	  "sqlite_path": "huntlog.db",
//	  "redis_addr": "127.0.0.1:6379",
//	  "request_timeout": "30s",
//	  "single_flight_refresh": true,
//	  "current_user_stale_time": "5m",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// Invalid input panics at startup.
package config
