package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redistest"
)

type result struct {
	out    string
	errOut string
	err    error
}

// run executes the app against srv with stdin as input.
func run(t *testing.T, srv *redistest.Server, stdin string, args ...string) result {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	argv := []string{"goresp-cli", "--host", srv.Host(), "--port", strconv.Itoa(srv.Port())}
	err := app.Run(append(argv, args...))
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func mustRun(t *testing.T, srv *redistest.Server, args ...string) string {
	t.Helper()
	r := run(t, srv, "", args...)
	if r.err != nil {
		t.Fatalf("%v: error = %v\nstderr: %s", args, r.err, r.errOut)
	}
	return r.out
}

func TestApp_Commands(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	srv.Set(0, "greeting", []byte("hello"))

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ping"}, "PONG\n"},
		{[]string{"ping", "hi there"}, "\"hi there\"\n"},
		{[]string{"get", "greeting"}, "\"hello\"\n"},
		{[]string{"get", "missing"}, "(nil)\n"},
		{[]string{"set", "--ex", "10s", "k", "v"}, "OK\n"},
		{[]string{"set", "--nx", "k", "w"}, "(nil)\n"},
		{[]string{"set", "--xx", "k", "w"}, "OK\n"},
		{[]string{"incr", "n"}, "(integer) 1\n"},
		{[]string{"incr", "--by", "5", "n"}, "(integer) 6\n"},
		{[]string{"del", "n", "nope"}, "(integer) 1\n"},
		{[]string{"publish", "news", "hi"}, "(integer) 0\n"},
		{[]string{"exec", "HSET", "h", "f", "v"}, "(integer) 1\n"},
		{[]string{"exec", "HGETALL", "h"}, "1) \"f\"\n2) \"v\"\n"},
		{[]string{"GET", "k"}, "\"w\"\n"},
		{[]string{"-o", "json", "exec", "MGET", "k", "missing"}, "[\n  \"w\",\n  null\n]\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := mustRun(t, srv, tt.args...); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApp_Errors(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	srv.Set(0, "s", []byte("abc"))

	tests := []struct {
		name string
		args []string
		want *domain.DomainError
	}{
		{"server error", []string{"incr", "s"}, domain.ErrServerReply},
		{"raw server error", []string{"exec", "INCR", "s"}, domain.ErrServerReply},
		{"nx and xx", []string{"set", "--nx", "--xx", "k", "v"}, domain.ErrInvalidArgument},
		{"subscribe via exec", []string{"exec", "SUBSCRIBE", "ch"}, domain.ErrInvalidArgument},
		{"select without db", []string{"exec", "SELECT"}, domain.ErrInvalidArgument},
		{"unknown bench command", []string{"bench", "--command", "flushall"}, domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, srv, "", tt.args...)
			if !errors.Is(r.err, tt.want) {
				t.Errorf("error = %v, want %v", r.err, tt.want)
			}
		})
	}

	if got := ErrorText(run(t, srv, "", "incr", "s").err); got != "(error) value is not an integer or out of range" {
		t.Errorf("ErrorText() = %q", got)
	}
}

func TestApp_Usage(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	for _, args := range [][]string{{"get"}, {"set", "k"}, {"del"}, {"subscribe"}, {"exec"}} {
		if r := run(t, srv, "", args...); r.err == nil || !strings.Contains(r.err.Error(), "usage") {
			t.Errorf("%v: error = %v, want usage error", args, r.err)
		}
	}
	if srv.Accepted() != 0 {
		t.Errorf("Accepted() = %d, want 0", srv.Accepted())
	}
}

func TestApp_BadOutputFormat(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	if r := run(t, srv, "", "-o", "xml", "ping"); r.err == nil {
		t.Error("expected an error for -o xml")
	}
}

func TestApp_ConnectFailure(t *testing.T) {
	app := App()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run([]string{"goresp-cli", "--port", "1", "ping"})
	if !errors.Is(err, domain.ErrConnectFailed) {
		t.Errorf("error = %v, want ErrConnectFailed", err)
	}
}

func TestApp_AuthAndDB(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{Password: "pw"})

	if r := run(t, srv, "", "ping"); r.err == nil {
		t.Error("ping without password succeeded")
	}
	mustRun(t, srv, "-a", "pw", "-n", "3", "set", "k", "v")
	if v, ok := srv.Lookup(3, "k"); !ok || string(v) != "v" {
		t.Errorf("db 3 k = %q, %v", v, ok)
	}
}

func TestApp_Pipeline(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	srv.Set(0, "s", []byte("abc"))

	input := "SET a 1\nINCR a\n# comment\n\nINCR s\nGET \"a\"\n"
	r := run(t, srv, input, "pipeline", "--batch", "2")
	if r.err != nil {
		t.Fatalf("pipeline error = %v", r.err)
	}
	want := "OK\n(integer) 2\n(error) value is not an integer or out of range\n\"2\"\n"
	if r.out != want {
		t.Errorf("output = %q, want %q", r.out, want)
	}
	if srv.Accepted() != 1 {
		t.Errorf("Accepted() = %d, want 1", srv.Accepted())
	}
}

func TestApp_PipelineJSON(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	r := run(t, srv, "SET a 1\nGET a\n", "-o", "json", "pipeline")
	if r.err != nil {
		t.Fatal(r.err)
	}
	var got []any
	if err := json.Unmarshal([]byte(r.out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, r.out)
	}
	if len(got) != 2 || got[0] != "OK" || got[1] != "1" {
		t.Errorf("replies = %v", got)
	}
}

func TestApp_PipelineRejects(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	for _, input := range []string{"PING\nSELECT 1\n", "GET \"a\n"} {
		if r := run(t, srv, input, "pipeline"); r.err == nil || !strings.Contains(r.err.Error(), "line ") {
			t.Errorf("%q: error = %v, want a line error", input, r.err)
		}
	}
}

func TestApp_Bench(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	r := run(t, srv, "", "-o", "json", "bench",
		"--command", "incr", "--clients", "4", "--requests", "100",
		"--keyspace", "1", "--key-prefix", "n", "--rate", "100000", "--quiet")
	if r.err != nil {
		t.Fatalf("bench error = %v\n%s", r.err, r.errOut)
	}

	var report BenchReport
	if err := json.Unmarshal([]byte(r.out), &report); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, r.out)
	}
	if report.Requests != 100 || report.Errors != 0 || report.Clients != 4 {
		t.Errorf("report = %+v", report)
	}
	if report.Pool.Active != 0 || report.Pool.Idle > 4 {
		t.Errorf("pool = %+v", report.Pool)
	}
	if v, _ := srv.Lookup(0, "n0"); string(v) != "100" {
		t.Errorf("n0 = %q, want 100", v)
	}
	if srv.Accepted() > 4 {
		t.Errorf("Accepted() = %d, want at most 4", srv.Accepted())
	}
}

func TestApp_BenchTable(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	out := mustRun(t, srv, "bench", "--requests", "10", "--clients", "2", "--quiet")
	for _, want := range []string{"FIELD", "command", "ping", "requests", "10", "pool.idle"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestApp_ConfigShow(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	out := mustRun(t, srv, "-o", "yaml", "-a", "secret", "config", "show")
	if strings.Contains(out, "secret") {
		t.Errorf("password leaked:\n%s", out)
	}
	for _, want := range []string{"host: " + srv.Host(), "port: " + strconv.Itoa(srv.Port()), "max_total:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestApp_ConfigValidate(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("redis:\n  host: cache\n  port: 6380\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("redis:\n  port: 70000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if out := mustRun(t, srv, "config", "validate", good); out != "OK\n" {
		t.Errorf("validate good = %q", out)
	}
	if r := run(t, srv, "", "config", "validate", bad); r.err == nil {
		t.Error("validate accepted port 70000")
	}
}

func TestApp_Version(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})

	out := mustRun(t, srv, "-o", "json", "version")
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("version output is not JSON: %v", err)
	}
	if info["version"] == "" || info["go_version"] == "" {
		t.Errorf("version = %v", info)
	}
}

func TestApp_REPL(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	prompt := srv.Addr() + "> "

	input := "SET a 1\nSELECT 2\nGET a\nINCR\nexit\n"
	r := run(t, srv, input, "repl", "--history", "")
	if r.err != nil {
		t.Fatalf("repl error = %v", r.err)
	}

	for _, want := range []string{
		prompt + "OK\n",
		prompt + "OK\n" + srv.Addr() + "[2]> (nil)\n",
		"(error) wrong number of arguments",
	} {
		if !strings.Contains(r.out, want) {
			t.Errorf("output missing %q:\n%s", want, r.out)
		}
	}
	if v, _ := srv.Lookup(0, "a"); string(v) != "1" {
		t.Errorf("a = %q", v)
	}
}

func TestApp_NoArgsStartsREPL(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	t.Setenv("HOME", t.TempDir())

	r := run(t, srv, "PING\n")
	if r.err != nil {
		t.Fatal(r.err)
	}
	if !strings.Contains(r.out, srv.Addr()+"> PONG\n") {
		t.Errorf("output = %q", r.out)
	}
}

func TestApp_REPLHistory(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	file := filepath.Join(t.TempDir(), "history")

	if r := run(t, srv, "PING\nAUTH nope\n", "repl", "--history", file); r.err != nil {
		t.Fatal(r.err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("history not saved: %v", err)
	}
	if string(data) != "PING\n" {
		t.Errorf("history = %q", data)
	}
}
