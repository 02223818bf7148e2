package command

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/cli/output"
	"github.com/yndnr/goresp/internal/cli/repl"
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
	rcmd "github.com/yndnr/goresp/internal/redis/command"
	"github.com/yndnr/goresp/internal/redis/resp"
	"github.com/yndnr/goresp/internal/telemetry/logger"
)

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:            "exec",
		Usage:           "Send any command and print the reply",
		ArgsUsage:       "<command> [argument...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return usageError(c, "expects a command")
			}
			return execArgs(c, c.Args().Slice())
		},
	}
}

func execArgs(c *cli.Context, args []string) error {
	mgr, err := manager(c)
	if err != nil {
		return err
	}
	rc, err := mgr.Connect(c.Context)
	if err != nil {
		return err
	}
	reply, err := sendArgs(rc, mgr.Logger(), args)
	if err != nil {
		return err
	}
	return render(c, reply)
}

// sendArgs sends args as one command. SELECT goes through the client so
// it keeps track of the database; commands that take over the connection
// are refused.
func sendArgs(rc *rcmd.Context, log logger.Logger, args []string) (any, error) {
	switch name := strings.ToUpper(args[0]); name {
	case "SELECT":
		if len(args) != 2 {
			return nil, domain.InvalidArgument("SELECT", "expects one database number")
		}
		db, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, domain.InvalidArgument("db", "must be an integer")
		}
		if err := rc.Connection.Select(db); err != nil {
			return nil, err
		}
		return "OK", nil
	case "SUBSCRIBE", "PSUBSCRIBE", "MONITOR":
		return nil, domain.InvalidArgument("command", name+" needs a dedicated connection, use the subscribe command")
	}

	log.Debug("exec", "args", logger.RedactArgs(args))
	return rc.Client.SendExpectReply(client.Args(args...)...)
}

// PipelineCommand returns the pipeline command.
func PipelineCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Send the commands read from stdin, one per line, in pipelined batches",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch",
				Usage: "commands per round trip (0 sends everything at once)",
				Value: 1000,
			},
		},
		Action: pipeline,
	}
}

func pipeline(c *cli.Context) error {
	batchSize := c.Int("batch")
	if batchSize < 0 {
		return domain.InvalidArgument("batch", "must not be negative")
	}
	mgr, err := manager(c)
	if err != nil {
		return err
	}
	rc, err := mgr.Connect(c.Context)
	if err != nil {
		return err
	}

	var (
		batch   [][]string
		replies []any
		lineNo  int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		out, err := sendBatch(rc, batch)
		replies = append(replies, out...)
		batch = batch[:0]
		return err
	}

	scanner := bufio.NewScanner(c.App.Reader)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := repl.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		switch name := strings.ToUpper(args[0]); name {
		case "SELECT", "SUBSCRIBE", "PSUBSCRIBE", "MONITOR":
			return fmt.Errorf("line %d: %s cannot be pipelined", lineNo, name)
		}
		batch = append(batch, args)
		if batchSize > 0 && len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	mgr.Logger().Debug("pipeline sent", "commands", len(replies))

	if format(c) != output.FormatTable {
		return render(c, replies)
	}
	for _, r := range replies {
		if err := render(c, r); err != nil {
			return err
		}
	}
	return nil
}

// sendBatch pipelines one batch. Per-command server errors become the
// reply of that command; a connection failure is returned.
func sendBatch(rc *rcmd.Context, batch [][]string) ([]any, error) {
	p, err := rc.Client.Pipeline()
	if err != nil {
		return nil, err
	}
	for _, args := range batch {
		if _, err := p.Queue(resp.DecodeAny, client.Args(args...)...); err != nil {
			_ = p.Discard()
			return nil, err
		}
	}

	results, err := p.Exec()
	if err != nil && domain.KindOf(err) == domain.KindConnection {
		return nil, err
	}
	out := make([]any, len(results))
	for i, r := range results {
		v, err := r.Any()
		if err != nil {
			out[i] = replyError(err)
			continue
		}
		out[i] = v
	}
	return out, nil
}

// replyError strips a server error down to the server's message.
func replyError(err error) error {
	if msg, ok := domain.ServerMessage(err); ok {
		return errors.New(msg)
	}
	return err
}

// ErrorText formats a command failure for the terminal.
func ErrorText(err error) string {
	return "(error) " + replyError(err).Error()
}
