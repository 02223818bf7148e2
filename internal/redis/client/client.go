package client

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/resp"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
)

// State is the connection lifecycle state of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Client is a RESP client bound to one endpoint.
//
// A Client is not safe for concurrent use; State and ID may be read from
// any goroutine.
type Client struct {
	ep      domain.Endpoint
	opts    Options
	id      string
	log     logger.Logger
	metrics *metric.Registry

	state atomic.Int32

	conn       net.Conn
	r          *resp.Reader
	w          *resp.Writer // command traffic, held back while pipelining
	hw         *resp.Writer // handshake traffic (AUTH, SELECT)
	db         int          // database currently selected on conn
	lastActive time.Time

	pipeline *Pipeline

	live        atomic.Pointer[net.Conn] // conn, readable from Interrupt
	interrupted atomic.Bool              // set by Interrupt until a read consumes it
}

// New creates a client for ep. It connects lazily on first use.
func New(ep domain.Endpoint, opts Options) *Client {
	opts = opts.withDefaults()
	ep = ep.WithDefaults()
	id := ulid.Make().String()

	c := &Client{
		ep:      ep,
		opts:    opts,
		id:      id,
		metrics: opts.Metrics,
		log:     opts.Logger.With("client_id", id, "endpoint", ep.Addr()),
		w:       resp.NewWriter(opts.Pool),
		hw:      resp.NewWriter(opts.Pool),
		db:      ep.DB,
	}
	c.state.Store(int32(StateDisconnected))
	return c
}

// ID returns the client's unique instance ID (a ULID).
func (c *Client) ID() string { return c.id }

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() domain.Endpoint { return c.ep }

// State returns the lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// DB returns the database index currently selected.
func (c *Client) DB() int { return c.db }

// Pipelining reports whether a pipeline is active.
func (c *Client) Pipelining() bool { return c.pipeline != nil }

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Connect opens the connection now instead of on first use.
func (c *Client) Connect(ctx context.Context) error {
	if c.State() == StateDisposed {
		return domain.ErrClientClosed
	}
	if c.conn != nil {
		return nil
	}
	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	c.setState(StateConnecting)
	c.interrupted.Store(false)

	if c.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ConnectTimeout)
		defer cancel()
	}

	nc, err := c.opts.Dial(ctx, "tcp", c.ep.Addr())
	if err != nil {
		c.setState(StateDisconnected)
		c.metrics.RecordConnect(false)
		c.log.Warn("connect failed", "error", err)
		return domain.ErrConnectFailed.WithDetails(c.ep.Addr()).WithCause(err)
	}

	c.setConn(nc)
	if c.r == nil {
		c.r = resp.NewReader(nc)
	} else {
		c.r.Reset(nc)
	}
	c.db = 0

	if c.ep.Password != "" {
		if err := c.handshake(resp.DecodeOK, "AUTH", c.ep.Password); err != nil {
			c.abortConnect()
			return domain.ErrConnectFailed.WithDetails(c.ep.Addr() + ": AUTH").WithCause(err)
		}
	}
	if c.ep.DB != 0 {
		if err := c.handshake(resp.DecodeOK, "SELECT", strconv.Itoa(c.ep.DB)); err != nil {
			c.abortConnect()
			return domain.ErrConnectFailed.WithDetails(c.ep.Addr() + ": SELECT").WithCause(err)
		}
		c.db = c.ep.DB
	}

	c.lastActive = time.Now()
	c.setState(StateConnected)
	c.metrics.RecordConnect(true)
	c.log.Debug("connected", "db", c.db)
	return nil
}

func (c *Client) abortConnect() {
	_ = c.conn.Close()
	c.setConn(nil)
	c.setState(StateDisconnected)
	c.metrics.RecordConnect(false)
}

// handshake runs one command outside the command writer, so it never
// flushes commands held back by a pipeline.
func (c *Client) handshake(d resp.Decoder, args ...string) error {
	c.hw.WriteArgs(args...)
	c.setWriteDeadline()
	if err := c.hw.Flush(c.conn); err != nil {
		return err
	}
	c.setReadDeadline()
	_, err := c.r.Decode(d)
	return err
}

// ensureConnected connects on first use and probes a connection that has
// been idle longer than IdleTimeout, reconnecting once if it is dead.
func (c *Client) ensureConnected() error {
	if c.State() == StateDisposed {
		return domain.ErrClientClosed
	}
	if c.conn == nil {
		return c.connect(context.Background())
	}
	if c.opts.IdleTimeout > 0 && time.Since(c.lastActive) >= c.opts.IdleTimeout && !c.alive() {
		if err := c.reconnect(); err != nil {
			return err
		}
	}
	c.lastActive = time.Now()
	return nil
}

// alive reports whether the peer is still there: a probe read that
// times out means idle, EOF or any other error means gone.
func (c *Client) alive() bool {
	if c.r.Buffered() > 0 {
		return true
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.ProbeTimeout))
	err := c.r.Probe()
	_ = c.conn.SetReadDeadline(time.Time{})
	if err == nil {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Client) reconnect() error {
	prevDB := c.db
	c.setState(StateReconnecting)
	c.closeConn()
	c.metrics.IncReconnect()
	c.log.Warn("idle connection is gone, reconnecting", "db", prevDB)

	if err := c.connect(context.Background()); err != nil {
		return err
	}
	if prevDB != c.db {
		if err := c.handshake(resp.DecodeOK, "SELECT", strconv.Itoa(prevDB)); err != nil {
			c.fail()
			return domain.ErrConnectFailed.WithDetails(c.ep.Addr() + ": SELECT").WithCause(err)
		}
		c.db = prevDB
	}
	return nil
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.setConn(nil)
	c.metrics.RecordDisconnect()
}

func (c *Client) setConn(nc net.Conn) {
	c.conn = nc
	if nc == nil {
		c.live.Store(nil)
		return
	}
	c.live.Store(&nc)
}

// Interrupt unblocks a read in progress on another goroutine, or the next
// read on the current connection if none is in progress; that read fails
// with ErrConnectionLost and the connection is dropped. It is the only method safe to call
// concurrently with the client's owner.
func (c *Client) Interrupt() {
	c.interrupted.Store(true)
	if p := c.live.Load(); p != nil {
		_ = (*p).SetReadDeadline(time.Now())
	}
}

// Abort drops the connection without a goodbye. The next command opens a
// fresh one. Use it when the stream can no longer be trusted, such as a
// subscription loop that stopped with subscriptions still active.
func (c *Client) Abort() {
	if c.conn == nil {
		return
	}
	c.fail()
	c.log.Debug("connection aborted")
}

// fail drops the socket after an I/O or framing failure.
func (c *Client) fail() {
	c.closeConn()
	c.w.Discard()
	c.hw.Discard()
	if c.State() != StateDisposed {
		c.setState(StateDisconnected)
	}
}

func (c *Client) setWriteDeadline() {
	if c.opts.SendTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.SendTimeout))
	}
}

func (c *Client) setReadDeadline() {
	if c.opts.ReceiveTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.ReceiveTimeout))
	}
}

// write frames one command and, unless pipelining, flushes it.
func (c *Client) write(tokens [][]byte) error {
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return domain.InvalidArgument("command", "must not be empty")
	}
	if err := c.ensureConnected(); err != nil {
		return err
	}
	c.w.WriteAll(tokens)
	if c.pipeline != nil {
		return nil
	}
	return c.flush()
}

func (c *Client) flush() error {
	n := c.w.Buffered()
	if n == 0 {
		return nil
	}
	c.setWriteDeadline()
	if err := c.w.Flush(c.conn); err != nil {
		c.fail()
		c.log.Warn("write failed", "error", err)
		return domain.ErrConnectionLost.WithDetails(c.ep.Addr()).WithCause(err)
	}
	c.metrics.AddBytesWritten(n)
	return nil
}

// read decodes one reply and classifies failures: server errors pass
// through, framing errors and I/O errors drop the socket.
func (c *Client) read(d resp.Decoder) (resp.Value, error) {
	if c.conn == nil {
		return resp.Value{}, domain.ErrConnectionLost.WithDetails(c.ep.Addr())
	}
	c.setReadDeadline()
	if c.interrupted.Swap(false) {
		c.fail()
		return resp.Value{}, domain.ErrConnectionLost.WithDetails(c.ep.Addr() + ": interrupted")
	}
	v, err := c.r.Decode(d)
	if err == nil {
		c.lastActive = time.Now()
		return v, nil
	}

	switch domain.KindOf(err) {
	case domain.KindServer:
		c.lastActive = time.Now()
		return v, err
	case domain.KindProtocol:
		if errors.Is(err, domain.ErrProtocol) {
			c.fail()
		}
		return v, err
	default:
		c.interrupted.Store(false)
		c.fail()
		c.log.Warn("read failed", "error", err)
		return v, domain.ErrConnectionLost.WithDetails(c.ep.Addr()).WithCause(err)
	}
}

// Close disposes the client. Further calls fail with ErrClientClosed.
func (c *Client) Close() error {
	if c.State() == StateDisposed {
		return nil
	}
	c.setState(StateDisposed)
	c.pipeline = nil

	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.setConn(nil)
		c.metrics.RecordDisconnect()
	}
	c.w.Release()
	c.hw.Release()
	c.log.Debug("closed")
	return err
}
