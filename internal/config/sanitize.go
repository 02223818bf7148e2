package config

import "github.com/yndnr/goresp/internal/telemetry/logger"

// Sanitize returns a copy of the config with the password masked, for
// display and logging.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Redis.Password != "" {
		sanitized.Redis.Password = logger.MaskSecret(sanitized.Redis.Password)
	}
	return &sanitized
}
