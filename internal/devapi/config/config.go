// Package config handles configuration for the development backend,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for devapi.
//
// Fields:
//   - ListenAddr: bind address for the HTTP endpoint.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Development only.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - OneTimeTokenValidityDuration: lifetime of reset and verification tokens.
//   - LogLevel / LogFormat: logger settings ("debug".."error", "text" or "json").
type Config struct {
	ListenAddr                   string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	OneTimeTokenValidityDuration time.Duration
	LogLevel                     string
	LogFormat                    string
}

// LoadDefaults populates Config with development defaults. The access token
// lifetime is short on purpose so clients hit the refresh path quickly.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 1 * time.Minute
	c.RefreshTokenValidityDuration = 60 * time.Minute
	c.OneTimeTokenValidityDuration = 30 * time.Minute
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
