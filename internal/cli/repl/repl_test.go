package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
)

type recorder struct {
	calls [][]string
	reply any
	err   error
}

func (r *recorder) exec(_ context.Context, args []string) (any, error) {
	r.calls = append(r.calls, args)
	return r.reply, r.err
}

func newTestREPL(input string, rec *recorder) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(Options{
		In:   strings.NewReader(input),
		Out:  out,
		Exec: rec.exec,
		Render: func(w io.Writer, reply any) error {
			_, err := fmt.Fprintf(w, "=> %v\n", reply)
			return err
		},
	})
	return r, out
}

func TestREPL_Exit(t *testing.T) {
	for _, input := range []string{"exit\n", "QUIT\n", "", "PING"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			r, _ := newTestREPL(input, &recorder{reply: "PONG"})
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		})
	}
}

func TestREPL_ExecutesLines(t *testing.T) {
	rec := &recorder{reply: "OK"}
	r, out := newTestREPL("SET k \"a b\"\n\n  GET k  \nexit\nGET never\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := [][]string{{"SET", "k", "a b"}, {"GET", "k"}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("executed %q, want %q", rec.calls, want)
	}
	if got := strings.Count(out.String(), "=> OK"); got != 2 {
		t.Errorf("rendered %d replies, want 2", got)
	}
	if got := strings.Count(out.String(), "goresp> "); got != 4 {
		t.Errorf("printed %d prompts, want 4", got)
	}
}

func TestREPL_ErrorsDoNotStop(t *testing.T) {
	rec := &recorder{err: errors.New("WRONGTYPE bad")}
	r, out := newTestREPL("INCR k\nGET \"k\nPING\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("executed %d commands, want 2", len(rec.calls))
	}
	if got := strings.Count(out.String(), "(error) "); got != 3 {
		t.Errorf("printed %d errors, want 3:\n%s", got, out.String())
	}
}

func TestREPL_History(t *testing.T) {
	rec := &recorder{reply: "OK"}
	r, _ := newTestREPL("AUTH secret\nGET a\nGET b\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.history.Len() != 2 || r.history.Get(0) != "GET b" || r.history.Get(1) != "GET a" {
		t.Errorf("history newest %q, len %d", r.history.Get(0), r.history.Len())
	}
}

func TestREPL_Help(t *testing.T) {
	rec := &recorder{}
	r, out := newTestREPL("help zsc\n", rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Error("help was sent to the server")
	}
	if !strings.Contains(out.String(), "ZSCORE") {
		t.Errorf("help output = %q", out.String())
	}
}

func TestREPL_CancelledContext(t *testing.T) {
	rec := &recorder{reply: "OK"}
	r, _ := newTestREPL("PING\nPING\n", rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("executed %d commands after cancel", len(rec.calls))
	}
}
