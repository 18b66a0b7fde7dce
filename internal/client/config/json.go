package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/huntlog/internal/flagx"
	"github.com/dmitrijs2005/huntlog/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration so they can be written as "30s" or as
// integer nanoseconds. Absent fields leave the current value alone.
type JsonConfig struct {
	APIBaseURL           string          `json:"api_base_url"`
	StorageBackend       string          `json:"storage_backend"`
	SQLitePath           string          `json:"sqlite_path"`
	RedisAddr            string          `json:"redis_addr"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	SingleFlightRefresh  *bool           `json:"single_flight_refresh"`
	CurrentUserStaleTime *timex.Duration `json:"current_user_stale_time"`
	LogLevel             string          `json:"log_level"`
	LogFormat            string          `json:"log_format"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags(os.Args[1:])
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

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.SQLitePath, jc.SQLitePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CurrentUserStaleTime != nil {
		cfg.CurrentUserStaleTime = jc.CurrentUserStaleTime.Duration
	}
	if jc.SingleFlightRefresh != nil {
		cfg.SingleFlightRefresh = *jc.SingleFlightRefresh
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
