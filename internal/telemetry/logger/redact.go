package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as a credential.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// IsSensitiveKey checks if a key name suggests a credential.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// RedactArgs returns a copy of a command vector safe to log: the
// password of AUTH, HELLO ... AUTH and CONFIG SET requirepass is masked.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	if len(out) == 0 {
		return out
	}

	switch strings.ToUpper(out[0]) {
	case "AUTH":
		for i := 1; i < len(out); i++ {
			out[i] = redactedValue
		}
	case "HELLO":
		// HELLO protover AUTH username password
		for i := 1; i+2 < len(out); i++ {
			if strings.EqualFold(out[i], "AUTH") {
				out[i+2] = redactedValue
			}
		}
	case "CONFIG":
		if len(out) >= 4 && strings.EqualFold(out[1], "SET") &&
			(strings.EqualFold(out[2], "requirepass") || IsSensitiveKey(out[2])) {
			out[3] = redactedValue
		}
	}
	return out
}

// MaskSecret renders a secret for display: empty stays empty, anything
// else becomes a fixed mask.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	return redactedValue
}
