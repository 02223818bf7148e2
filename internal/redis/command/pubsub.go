package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
	"github.com/yndnr/goresp/internal/redis/pubsub"
)

// PubSub wraps the publish/subscribe commands.
type PubSub struct {
	c   *client.Client
	ctx *Context
}

// Subscribe blocks, delivering events to h, until every channel is
// unsubscribed or ctx is cancelled. Names containing '*' make the whole
// call a PSUBSCRIBE. The client must not be used for anything else while
// Subscribe runs. A loop that stops with subscriptions left drops the
// connection; the next command reconnects.
func (f PubSub) Subscribe(ctx context.Context, h pubsub.Handler, channels ...string) error {
	if err := requireKeys("channels", channels); err != nil {
		return err
	}
	name := "SUBSCRIBE"
	for _, ch := range channels {
		if strings.Contains(ch, "*") {
			name = "PSUBSCRIBE"
			break
		}
	}

	s := pubsub.NewSession(f.c, h, pubsub.WithLogger(f.ctx.log), pubsub.WithMetrics(f.ctx.metrics))
	return s.Run(ctx, cmd(name, len(channels)).str(channels...))
}

// Publish posts message to channel and returns how many subscribers got it.
func (f PubSub) Publish(channel string, message []byte) (int64, error) {
	if err := requireKey("channel", channel); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("PUBLISH", 2).str(channel).raw(message)...)
}

// Channels lists the active channels matching pattern ("" for all).
func (f PubSub) Channels(pattern string) ([]string, error) {
	a := cmd("PUBSUB", 2).str("CHANNELS")
	if pattern != "" {
		a = a.str(pattern)
	}
	items, err := f.c.SendExpectMultiData(a...)
	return toStrings(items), err
}

// NumSub returns the subscriber count of each channel.
func (f PubSub) NumSub(channels ...string) ([]domain.ChannelCount, error) {
	if err := requireKeys("channels", channels); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("PUBSUB", len(channels)+1).str("NUMSUB").str(channels...)...)
	if err != nil {
		return nil, err
	}
	kvs, err := pairs(items)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ChannelCount, len(kvs))
	for i, kv := range kvs {
		n, err := strconv.ParseInt(string(kv.Value), 10, 64)
		if err != nil {
			return nil, domain.ErrProtocol.WithDetailsf("non-numeric subscriber count %q", kv.Value)
		}
		out[i] = domain.ChannelCount{Channel: kv.Key, Subscribers: n}
	}
	return out, nil
}

// NumPat returns the number of pattern subscriptions.
func (f PubSub) NumPat() (int64, error) {
	return f.c.SendExpectLong(cmd("PUBSUB", 1).str("NUMPAT")...)
}

// Unsubscribe sends (P)UNSUBSCRIBE on a connection that is not running a
// subscription loop and consumes its confirmations. Inside a handler use
// pubsub.Session.Unsubscribe instead.
func (f PubSub) Unsubscribe(channels ...string) error {
	name := "UNSUBSCRIBE"
	for _, ch := range channels {
		if strings.Contains(ch, "*") {
			name = "PUNSUBSCRIBE"
			break
		}
	}
	if err := f.c.SendExpectSuccess(cmd(name, len(channels)).str(channels...)...); err != nil {
		return err
	}
	for i := 1; i < len(channels); i++ {
		if _, err := f.c.ReadMultiData(); err != nil {
			return err
		}
	}
	return nil
}
