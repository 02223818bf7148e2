// Package output renders command results for goresp-cli.
//
// Three formats are supported:
//
//   - table: replies in the numbered redis-cli style, key/value lists and
//     reports as aligned columns
//   - json: indented JSON
//   - yaml: YAML via gopkg.in/yaml.v3
//
// Binary-safe values ([]byte) are shown as text in every format.
package output
