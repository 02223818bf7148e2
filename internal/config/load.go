package config

import (
	"fmt"

	"github.com/yndnr/goresp/internal/infra/confloader"
)

// Load builds the configuration from defaults, the YAML file at path
// (skipped when empty), GORESP_* environment variables and overrides,
// then verifies it.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
