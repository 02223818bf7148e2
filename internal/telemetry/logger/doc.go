// Package logger provides structured logging for the RESP client and CLI.
//
// It wraps the standard library log/slog:
//
//   - logger.go: Logger interface, configuration, global default, Nop
//   - context.go: context propagation with client IDs
//   - redact.go: credential redaction in attributes and command vectors
//
// Attributes whose key looks like a credential (password, secret, auth,
// token, credential) are replaced before they reach the handler, and
// RedactArgs masks the password of AUTH-style command vectors.
package logger
