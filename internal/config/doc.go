// Package config defines the client configuration.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Range and consistency checks
//   - sanitize.go: Display sanitization (hide the password)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// GORESP_* environment variables and command-line flags.
package config
