package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/huntlog/internal/flagx"
	"github.com/dmitrijs2005/huntlog/internal/timex"
)

// JsonConfig is the JSON form of Config. Durations accept "90s" as well as
// integer nanoseconds. Absent fields keep the defaults.
type JsonConfig struct {
	ListenAddr                   string          `json:"listen_addr"`
	SecretKey                    string          `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	OneTimeTokenValidityDuration *timex.Duration `json:"one_time_token_validity_duration"`
	LogLevel                     string          `json:"log_level"`
	LogFormat                    string          `json:"log_format"`
}

// parseJson overlays config with the file named by -c or -config, if any.
// Panics on read or unmarshal errors.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ListenAddr != "" {
		config.ListenAddr = c.ListenAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.OneTimeTokenValidityDuration != nil {
		config.OneTimeTokenValidityDuration = c.OneTimeTokenValidityDuration.Duration
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		config.LogFormat = c.LogFormat
	}
}
