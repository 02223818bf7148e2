package redistest

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

func TestReadCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"array", "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n", []string{"GET", "foo"}, false},
		{"empty token", "*2\r\n$4\r\nECHO\r\n$0\r\n\r\n", []string{"ECHO", ""}, false},
		{"inline", "PING\r\n", []string{"PING"}, false},
		{"bad length", "*x\r\n", nil, true},
		{"bad terminator", "*1\r\n$3\r\nGETxx", nil, true},
		{"missing crlf", "*1\n", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ReadCommand(bufio.NewReader(strings.NewReader(tt.input)))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(args) != len(tt.want) {
				t.Fatalf("ReadCommand() = %q, want %q", args, tt.want)
			}
			for i := range args {
				if string(args[i]) != tt.want[i] {
					t.Errorf("arg %d = %q, want %q", i, args[i], tt.want[i])
				}
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"news.*", "news.sport", true},
		{"news.*", "weather", false},
		{"h?llo", "hello", true},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"a/*", "a/b/c", true},
		{`lit\*`, "lit*", true},
	}
	for _, tt := range tests {
		if got := match(tt.pattern, tt.s); got != tt.want {
			t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}

// roundTrip sends raw request bytes and reads n reply lines.
func roundTrip(t *testing.T, conn net.Conn, br *bufio.Reader, req string, lines int) []string {
	t.Helper()
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	out := make([]string, 0, lines)
	for i := 0; i < lines; i++ {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		out = append(out, strings.TrimSuffix(line, "\r\n"))
	}
	return out
}

func TestServer_AuthAndSelect(t *testing.T) {
	s := NewServer(t, Config{Password: "pw"})

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	got := roundTrip(t, conn, br, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", 1)
	if !strings.HasPrefix(got[0], "-NOAUTH") {
		t.Errorf("SET before AUTH = %q, want NOAUTH", got[0])
	}

	got = roundTrip(t, conn, br, "*2\r\n$4\r\nAUTH\r\n$2\r\npw\r\n*2\r\n$6\r\nSELECT\r\n$1\r\n3\r\n", 2)
	if got[0] != "+OK" || got[1] != "+OK" {
		t.Fatalf("AUTH/SELECT = %q", got)
	}

	roundTrip(t, conn, br, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", 1)
	if v, ok := s.Lookup(3, "k"); !ok || string(v) != "v" {
		t.Errorf("Lookup(3, k) = %q, %v", v, ok)
	}
	if _, ok := s.Lookup(0, "k"); ok {
		t.Error("key should not exist in db 0")
	}
}

func TestServer_HandleOverride(t *testing.T) {
	s := NewServer(t, Config{})
	s.Handle("get", func(c *Conn, args [][]byte) {
		c.WriteError("ERR scripted " + string(args[1]))
	})

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	got := roundTrip(t, conn, br, "*2\r\n$3\r\nGET\r\n$1\r\nx\r\n", 1)
	if got[0] != "-ERR scripted x" {
		t.Errorf("GET = %q", got[0])
	}
	if rec := s.Received(); len(rec) != 1 || rec[0][0] != "GET" {
		t.Errorf("Received() = %q", rec)
	}
}

func TestServer_MultiExec(t *testing.T) {
	s := NewServer(t, Config{})
	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	got := roundTrip(t, conn, br,
		"*1\r\n$5\r\nMULTI\r\n*2\r\n$4\r\nINCR\r\n$1\r\nn\r\n*2\r\n$4\r\nINCR\r\n$1\r\nn\r\n*1\r\n$4\r\nEXEC\r\n", 6)
	want := []string{"+OK", "+QUEUED", "+QUEUED", "*2", ":1", ":2"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServer_KillConnections(t *testing.T) {
	s := NewServer(t, Config{})
	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)
	roundTrip(t, conn, br, "*1\r\n$4\r\nPING\r\n", 1)

	s.KillConnections()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := br.ReadByte(); err == nil {
		t.Error("read after kill should fail")
	}
	if s.Accepted() != 1 {
		t.Errorf("Accepted() = %d, want 1", s.Accepted())
	}
}
