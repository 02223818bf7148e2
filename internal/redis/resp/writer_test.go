package resp

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/goresp/internal/redistest"
	"github.com/yndnr/goresp/pkg/bufpool"
)

func TestWriter_Framing(t *testing.T) {
	w := NewWriter(nil)
	w.WriteAll([][]byte{[]byte("SET"), []byte("key"), []byte("")})

	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$0\r\n\r\n"
	if buf.String() != want {
		t.Errorf("Flush() wrote %q, want %q", buf.String(), want)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 5000)
	binary := []byte{0, '\r', '\n', 0xff, '$', '*'}

	tests := []struct {
		name   string
		length int
		tokens [][]byte
	}{
		{"small", 64, [][]byte{[]byte("PING")}},
		{"empty token", 64, [][]byte{[]byte("ECHO"), {}}},
		{"binary safe", 64, [][]byte{[]byte("SET"), []byte("k"), binary}},
		{"token larger than buffer", 64, [][]byte{[]byte("SET"), []byte("k"), big}},
		{"many tokens", 64, manyTokens(200)},
		{"default buffer", bufpool.DefaultBufferLength, [][]byte{[]byte("SET"), []byte("k"), big}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := bufpool.New(bufpool.WithBufferLength(tt.length), bufpool.WithMaxSize(tt.length*8))
			w := NewWriter(pool)
			w.WriteAll(tt.tokens)
			w.WriteAll(tt.tokens)

			var buf bytes.Buffer
			if err := w.Flush(&buf); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if w.Buffered() != 0 {
				t.Errorf("Buffered() after Flush = %d", w.Buffered())
			}

			br := bufio.NewReader(&buf)
			for round := 0; round < 2; round++ {
				got, err := redistest.ReadCommand(br)
				if err != nil {
					t.Fatalf("ReadCommand() error = %v", err)
				}
				if len(got) != len(tt.tokens) {
					t.Fatalf("got %d tokens, want %d", len(got), len(tt.tokens))
				}
				for i := range got {
					if !bytes.Equal(got[i], tt.tokens[i]) {
						t.Fatalf("token %d mismatch", i)
					}
				}
			}
			if br.Buffered() != 0 {
				t.Errorf("%d trailing bytes", br.Buffered())
			}
		})
	}
}

func manyTokens(n int) [][]byte {
	out := [][]byte{[]byte("MSET")}
	for i := 0; i < n; i++ {
		out = append(out, []byte(strings.Repeat("k", i%7+1)))
	}
	return out
}

func TestWriter_SplitsAcrossBuffers(t *testing.T) {
	pool := bufpool.New(bufpool.WithBufferLength(64), bufpool.WithMaxSize(64*16))
	w := NewWriter(pool)
	w.WriteAll([][]byte{[]byte("SET"), []byte("k"), bytes.Repeat([]byte("v"), 300)})

	want := len("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$300\r\n") + 300 + 2
	if w.Buffered() != want {
		t.Errorf("Buffered() = %d, want %d", w.Buffered(), want)
	}
	for i, seg := range w.queue {
		if len(seg.buf) != pool.BufferLength() {
			t.Errorf("segment %d has a %d byte buffer, want pool length", i, len(seg.buf))
		}
	}
	if st := pool.Stats(); st.Oversized != 0 {
		t.Errorf("Oversized = %d, want 0", st.Oversized)
	}

	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.Len() != want {
		t.Errorf("wrote %d bytes, want %d", buf.Len(), want)
	}
	if pool.Parked() == 0 {
		t.Error("Flush should return buffers to the pool")
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestWriter_FlushFailureDropsQueue(t *testing.T) {
	pool := bufpool.New(bufpool.WithBufferLength(64), bufpool.WithMaxSize(64*16))
	w := NewWriter(pool)
	w.WriteArgs("SET", "k", strings.Repeat("v", 200))

	returned := pool.Stats().Returned
	boom := errors.New("broken pipe")
	if err := w.Flush(failingWriter{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("Flush() error = %v, want %v", err, boom)
	}
	if w.Buffered() != 0 {
		t.Errorf("Buffered() after failed Flush = %d, want 0", w.Buffered())
	}
	if n := pool.Stats().Returned - returned; n != 0 {
		t.Errorf("failed Flush returned %d buffers to the pool", n)
	}

	// The writer stays usable.
	w.WriteArgs("PING")
	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.String() != "*1\r\n$4\r\nPING\r\n" {
		t.Errorf("Flush() wrote %q", buf.String())
	}
}

func TestWriter_Discard(t *testing.T) {
	w := NewWriter(nil)
	w.WriteArgs("GET", "k")
	w.Discard()
	if w.Buffered() != 0 {
		t.Errorf("Buffered() after Discard = %d", w.Buffered())
	}

	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Flush() after Discard wrote %q", buf.String())
	}
	w.Release()
}
