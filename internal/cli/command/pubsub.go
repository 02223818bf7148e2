package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/infra/shutdown"
	"github.com/yndnr/goresp/internal/redis/pubsub"
)

// PublishCommand returns the publish command.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Post a message and print how many subscribers got it",
		ArgsUsage: "<channel> <message>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return usageError(c, "expects a channel and a message")
			}
			rc, err := connect(c)
			if err != nil {
				return err
			}
			n, err := rc.PubSub.Publish(c.Args().Get(0), []byte(c.Args().Get(1)))
			if err != nil {
				return err
			}
			return render(c, n)
		},
	}
}

// SubscribeCommand returns the subscribe command.
func SubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Print messages until interrupted; names with '*' subscribe by pattern",
		ArgsUsage: "<channel> [channel...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "unsubscribe after this many messages (0 waits forever)",
			},
		},
		Action: subscribe,
	}
}

func subscribe(c *cli.Context) error {
	if c.NArg() == 0 {
		return usageError(c, "expects at least one channel")
	}
	mgr, err := manager(c)
	if err != nil {
		return err
	}
	rc, err := mgr.Connect(c.Context)
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(hookTimeout)
	if err := serveMetrics(mgr, h); err != nil {
		return err
	}
	if err := watchConfig(c, mgr, h); err != nil {
		return err
	}

	limit := c.Int("count")
	received := 0
	handle := func(s *pubsub.Session, ev pubsub.Event) error {
		if err := render(c, eventReply(ev)); err != nil {
			return err
		}
		if ev.Kind != pubsub.KindMessage && ev.Kind != pubsub.KindPMessage {
			return nil
		}
		received++
		if limit <= 0 || received != limit {
			return nil
		}
		if s.PatternMode() {
			return s.PUnsubscribe()
		}
		return s.Unsubscribe()
	}

	return h.Run(c.Context, func(ctx context.Context) error {
		return rc.PubSub.Subscribe(ctx, handle, c.Args().Slice()...)
	})
}

// eventReply shapes an event like the frame redis-cli prints for it.
func eventReply(ev pubsub.Event) []any {
	switch ev.Kind {
	case pubsub.KindMessage:
		return []any{[]byte(ev.Kind), []byte(ev.Channel), ev.Payload}
	case pubsub.KindPMessage:
		return []any{[]byte(ev.Kind), []byte(ev.Pattern), []byte(ev.Channel), ev.Payload}
	default:
		return []any{[]byte(ev.Kind), []byte(ev.Channel), ev.Count}
	}
}
