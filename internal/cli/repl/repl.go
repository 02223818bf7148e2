package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Executor runs one command line and returns the decoded reply.
type Executor func(ctx context.Context, args []string) (any, error)

// Renderer writes a reply to w.
type Renderer func(w io.Writer, reply any) error

// Options configures a REPL. Prompt is called before every line; nil
// prints "goresp> ".
type Options struct {
	In      io.Reader
	Out     io.Writer
	Prompt  func() string
	Exec    Executor
	Render  Renderer
	History *History
}

// REPL is the read-eval-print loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	exec      Executor
	render    Renderer
	completer *Completer
	history   *History
}

// New creates a REPL. Exec is required.
func New(opts Options) *REPL {
	if opts.Prompt == nil {
		opts.Prompt = func() string { return "goresp> " }
	}
	if opts.History == nil {
		opts.History = NewHistory("")
	}
	if opts.Render == nil {
		opts.Render = func(w io.Writer, reply any) error {
			_, err := fmt.Fprintln(w, reply)
			return err
		}
	}
	return &REPL{
		input:     opts.In,
		output:    opts.Out,
		prompt:    opts.Prompt,
		exec:      opts.Exec,
		render:    opts.Render,
		completer: NewCompleter(),
		history:   opts.History,
	}
}

// Run reads lines until EOF, "exit" or "quit", or until ctx is done.
// Command errors are printed and do not stop the loop. AUTH lines are
// not added to the history.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		line = strings.TrimSpace(line)
		if line != "" {
			if done := r.eval(ctx, line); done {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

// eval runs one line and reports whether the loop should stop.
func (r *REPL) eval(ctx context.Context, line string) bool {
	args, err := Split(line)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}
	if !strings.EqualFold(args[0], "AUTH") {
		r.history.Add(line)
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true
	case "help":
		r.help(args[1:])
		return false
	}

	reply, err := r.exec(ctx, args)
	if err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
		return false
	}
	if err := r.render(r.output, reply); err != nil {
		fmt.Fprintf(r.output, "(error) %v\n", err)
	}
	return false
}

func (r *REPL) help(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	names := r.completer.Complete(prefix)
	if len(names) == 0 {
		fmt.Fprintf(r.output, "no commands match %q\n", prefix)
		return
	}
	fmt.Fprintln(r.output, strings.Join(names, " "))
}
