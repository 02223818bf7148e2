package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/goresp/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// Field is one key/value row of a structured result.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// normalize converts reply values into types that encode as text: byte
// slices become strings, key/value lists become Fields and errors become
// {"error": msg}.
func normalize(data any) any {
	switch v := data.(type) {
	case []byte:
		if v == nil {
			return nil
		}
		return string(v)
	case [][]byte:
		if v == nil {
			return nil
		}
		out := make([]any, len(v))
		for i, b := range v {
			out[i] = normalize(b)
		}
		return out
	case []any:
		if v == nil {
			return nil
		}
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = normalize(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			out[k] = normalize(el)
		}
		return out
	case []domain.KeyValue:
		out := make([]Field, len(v))
		for i, kv := range v {
			out[i] = Field{Key: kv.Key, Value: string(kv.Value)}
		}
		return out
	case []domain.ScoreValue:
		out := make([]Field, len(v))
		for i, sv := range v {
			out[i] = Field{Key: string(sv.Member), Value: formatScore(sv.Score)}
		}
		return out
	case error:
		return map[string]any{"error": v.Error()}
	default:
		return data
	}
}
