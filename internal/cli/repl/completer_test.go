package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter()

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"exact", "PING", []string{"PING"}},
		{"lower case", "zrevrange", []string{"ZREVRANGE", "ZREVRANGEBYSCORE"}},
		{"hash prefix", "HINCR", []string{"HINCRBY", "HINCRBYFLOAT"}},
		{"builtin", "ex", []string{"EXEC", "EXISTS", "EXPIRE", "EXPIREAT", "exit"}},
		{"no match", "nonexistent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleter_EmptyPrefix(t *testing.T) {
	c := NewCompleter()
	if got := c.Complete(""); len(got) != len(c.commands) {
		t.Errorf("Complete(\"\") returned %d items, want %d", len(got), len(c.commands))
	}
}
