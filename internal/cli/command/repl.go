package command

import (
	"context"
	"io"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/cli/output"
	"github.com/yndnr/goresp/internal/cli/repl"
	"github.com/yndnr/goresp/internal/infra/shutdown"
)

// ReplCommand returns the repl command. Running goresp-cli without a
// command does the same.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Type commands interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (empty disables it)",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	mgr, err := manager(c)
	if err != nil {
		return err
	}
	log := mgr.Logger()

	history := repl.NewHistory(c.String("history"))
	if err := history.Load(); err != nil {
		log.Warn("history not loaded", "error", err)
	}

	ep := mgr.Config().Endpoint()
	prompt := func() string {
		db := ep.DB
		if rc := mgr.Current(); rc != nil {
			db = rc.Client.DB()
		}
		if db == 0 {
			return ep.Addr() + "> "
		}
		return ep.Addr() + "[" + strconv.Itoa(db) + "]> "
	}

	formatter := output.NewFormatter(format(c))
	r := repl.New(repl.Options{
		In:      c.App.Reader,
		Out:     c.App.Writer,
		Prompt:  prompt,
		History: history,
		Exec: func(ctx context.Context, args []string) (any, error) {
			rc, err := mgr.Connect(ctx)
			if err != nil {
				return nil, replyError(err)
			}
			reply, err := sendArgs(rc, log, args)
			if err != nil {
				return nil, replyError(err)
			}
			return reply, nil
		},
		Render: func(w io.Writer, reply any) error {
			return formatter.Format(w, reply)
		},
	})

	h := shutdown.NewHandler(hookTimeout)
	h.OnShutdown(func(context.Context) error { return history.Save() })
	return h.Run(c.Context, func(ctx context.Context) error {
		// A signal must end the loop even while it waits for input.
		errc := make(chan error, 1)
		go func() { errc <- r.Run(ctx) }()
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
