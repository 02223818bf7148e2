// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (LoadMap)
//  2. GORESP_* environment variables
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports writes to the configuration file through fsnotify so
// long-running commands can re-apply settings such as the log level.
package confloader
