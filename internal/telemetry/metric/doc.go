// Package metric provides Prometheus metrics for the RESP client.
//
//   - prometheus.go: Registry, command/connection metrics and the HTTP handler
//   - collector.go: collectors that read buffer-pool and client-pool state
//
// A nil *Registry is valid and records nothing, so library code can take
// one unconditionally.
package metric
