// Package pubsub interprets the reply stream of a subscribed connection.
package pubsub

import (
	"bytes"
	"context"
	"errors"
	"strconv"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
)

// Kind is the message-type marker of a subscription frame.
type Kind string

const (
	KindSubscribe    Kind = "subscribe"
	KindPSubscribe   Kind = "psubscribe"
	KindUnsubscribe  Kind = "unsubscribe"
	KindPUnsubscribe Kind = "punsubscribe"
	KindMessage      Kind = "message"
	KindPMessage     Kind = "pmessage"
)

// Event is one classified subscription frame.
type Event struct {
	Kind    Kind
	Pattern string // set for pmessage
	Channel string // channel, or pattern for (p)subscribe and (p)unsubscribe
	Payload []byte // set for message and pmessage
	Count   int64  // subscriptions left, set for (un)subscribe kinds
}

// Handler receives every event of a session in order. Returning an error
// ends Run with that error. A handler may call Unsubscribe or PUnsubscribe.
type Handler func(s *Session, ev Event) error

// Conn is the part of a client a session drives.
type Conn interface {
	SendExpectMultiData(tokens ...[]byte) ([][]byte, error)
	ReadMultiData() ([][]byte, error)
	Send(tokens ...[]byte) error
	Interrupt()
	Abort()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithMetrics counts events by kind.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Session) { s.metrics = m }
}

// Session tracks the subscriptions of one dedicated connection.
//
// A session owns its connection for the lifetime of Run: no other command
// may be sent on it until Run returns.
type Session struct {
	conn    Conn
	handler Handler
	log     logger.Logger
	metrics *metric.Registry

	count    int64
	pattern  bool
	channels map[string]struct{}
	order    []string
}

// NewSession creates a session over conn. h may be nil.
func NewSession(conn Conn, h Handler, opts ...Option) *Session {
	s := &Session{
		conn:     conn,
		handler:  h,
		log:      logger.Nop(),
		channels: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Count returns the number of subscriptions the server reported last.
func (s *Session) Count() int64 { return s.count }

// PatternMode reports whether the last subscription was a pattern one.
func (s *Session) PatternMode() bool { return s.pattern }

// Channels returns the active channels and patterns in subscription order.
func (s *Session) Channels() []string {
	out := make([]string, 0, len(s.order))
	for _, ch := range s.order {
		if _, ok := s.channels[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// Run sends first, a SUBSCRIBE or PSUBSCRIBE command, and then processes
// frames until the server reports no subscriptions left. Cancelling ctx
// interrupts the blocked read; Run then returns ctx.Err().
//
// When Run fails while subscriptions are still active, or the stream is
// malformed, the connection is aborted so it never serves another command
// in subscribed mode.
func (s *Session) Run(ctx context.Context, first [][]byte) (err error) {
	if len(first) < 2 {
		return domain.InvalidArgument("subscribe", "at least one channel is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, s.conn.Interrupt)
	defer stop()
	defer func() {
		if err != nil && (s.count > 0 || errors.Is(err, domain.ErrProtocol)) {
			s.log.Debug("aborting subscribed connection", "subscriptions", s.count, "error", err)
			s.conn.Abort()
		}
	}()

	frame, err := s.conn.SendExpectMultiData(first...)
	if err != nil {
		return s.runErr(ctx, err)
	}
	if err := s.Process(frame); err != nil {
		return err
	}

	for s.count > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := s.conn.ReadMultiData()
		if err != nil {
			return s.runErr(ctx, err)
		}
		if err := s.Process(frame); err != nil {
			return err
		}
	}
	s.log.Debug("subscription loop done")
	return nil
}

func (s *Session) runErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Process interprets one frame. A frame may carry several messages; each
// takes three tokens, four for pmessage.
func (s *Session) Process(frame [][]byte) error {
	for i := 0; i < len(frame); {
		marker := frame[i]
		step := 3
		if bytes.Equal(marker, []byte(KindPMessage)) {
			step = 4
		}
		if i+step > len(frame) {
			return domain.ErrProtocol.WithDetailsf("truncated %q frame: %d tokens", marker, len(frame)-i)
		}
		ev, err := s.apply(frame[i : i+step])
		if err != nil {
			return err
		}
		s.metrics.RecordPubSub(string(ev.Kind))
		if s.handler != nil {
			if err := s.handler(s, ev); err != nil {
				return err
			}
		}
		i += step
	}
	return nil
}

func (s *Session) apply(tok [][]byte) (Event, error) {
	kind := Kind(tok[0])
	ev := Event{Kind: kind, Channel: string(tok[1])}

	switch kind {
	case KindSubscribe, KindPSubscribe:
		n, err := parseCount(tok[2])
		if err != nil {
			return ev, err
		}
		s.pattern = kind == KindPSubscribe
		s.count = n
		if _, ok := s.channels[ev.Channel]; !ok {
			s.channels[ev.Channel] = struct{}{}
			s.order = append(s.order, ev.Channel)
		}
		ev.Count = n

	case KindUnsubscribe, KindPUnsubscribe:
		n, err := parseCount(tok[2])
		if err != nil {
			return ev, err
		}
		s.count = n
		delete(s.channels, ev.Channel)
		ev.Count = n

	case KindMessage:
		ev.Payload = tok[2]

	case KindPMessage:
		ev.Pattern = ev.Channel
		ev.Channel = string(tok[2])
		ev.Payload = tok[3]

	default:
		return ev, domain.ErrProtocol.WithDetailsf("expected [p]subscribe, [p]unsubscribe or [p]message, got %q", tok[0])
	}
	return ev, nil
}

func parseCount(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, domain.ErrProtocol.WithDetailsf("non-numeric subscription count %q", b)
	}
	return n, nil
}

// Unsubscribe sends UNSUBSCRIBE; no channels means all. The confirmation
// arrives as an event.
func (s *Session) Unsubscribe(channels ...string) error {
	return s.conn.Send(tokens("UNSUBSCRIBE", channels)...)
}

// PUnsubscribe sends PUNSUBSCRIBE; no patterns means all.
func (s *Session) PUnsubscribe(patterns ...string) error {
	return s.conn.Send(tokens("PUNSUBSCRIBE", patterns)...)
}

func tokens(cmd string, args []string) [][]byte {
	out := make([][]byte, 0, len(args)+1)
	out = append(out, []byte(cmd))
	for _, a := range args {
		out = append(out, []byte(a))
	}
	return out
}
