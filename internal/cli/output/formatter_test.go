package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/goresp/internal/core/domain"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("json: expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("yaml: expected YAMLFormatter")
	}
	if _, ok := NewFormatter("other").(*TableFormatter); !ok {
		t.Error("default: expected TableFormatter")
	}
}

func TestJSONFormatter_BytesAsText(t *testing.T) {
	var buf bytes.Buffer
	data := []any{[]byte("v"), int64(3), nil, []any{[]byte("x")}}
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(strings.Fields(buf.String()), "")
	if got != `["v",3,null,["x"]]` {
		t.Errorf("json = %s", got)
	}
}

func TestJSONFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	data := []any{int64(1), errors.New("ERR boom")}
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(strings.Fields(buf.String()), "")
	if got != `[1,{"error":"ERRboom"}]` {
		t.Errorf("json = %s", got)
	}
}

func TestJSONFormatter_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	data := []domain.KeyValue{{Key: "f", Value: []byte("v")}}
	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(strings.Fields(buf.String()), "")
	if got != `[{"key":"f","value":"v"}]` {
		t.Errorf("json = %s", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"value": []byte("hello"), "count": int64(2)}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "count: 2") || !strings.Contains(out, "value: hello") {
		t.Errorf("yaml =\n%s", out)
	}

	buf.Reset()
	if err := (&YAMLFormatter{}).Format(&buf, [][]byte{[]byte("a"), nil}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "- a\n- null\n" {
		t.Errorf("yaml list = %q", buf.String())
	}
}
