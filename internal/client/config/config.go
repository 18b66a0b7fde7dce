package config

import "time"

// Storage backends for the persisted session.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime settings for the huntlog CLI.
//
// Units: RequestTimeout and CurrentUserStaleTime are time.Duration values.
type Config struct {
	APIBaseURL           string
	StorageBackend       string
	SQLitePath           string
	RedisAddr            string
	RequestTimeout       time.Duration
	SingleFlightRefresh  bool
	CurrentUserStaleTime time.Duration
	LogLevel             string
	LogFormat            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080/api/v1"
	c.StorageBackend = BackendSQLite
	c.SQLitePath = "huntlog.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RequestTimeout = 30 * time.Second
	c.SingleFlightRefresh = true
	c.CurrentUserStaleTime = 5 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	cfg.validate()
	return cfg
}

func (c *Config) validate() {
	switch c.StorageBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		panic("unknown storage backend: " + c.StorageBackend)
	}
}
