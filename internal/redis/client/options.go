package client

import (
	"context"
	"net"
	"time"

	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
	"github.com/yndnr/goresp/pkg/bufpool"
)

// Default option values.
const (
	DefaultIdleTimeout  = 240 * time.Second
	DefaultProbeTimeout = time.Millisecond
	defaultKeepAlive    = 30 * time.Second
)

// DialFunc opens the transport connection.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Options configures a Client. Zero timeouts are disabled.
type Options struct {
	// ConnectTimeout bounds the TCP connect.
	ConnectTimeout time.Duration
	// SendTimeout bounds each flush to the socket.
	SendTimeout time.Duration
	// ReceiveTimeout bounds each reply read.
	ReceiveTimeout time.Duration
	// IdleTimeout is how long the connection may sit unused before the
	// next command probes it first. Negative disables probing.
	IdleTimeout time.Duration
	// ProbeTimeout is the read deadline of the liveness probe.
	ProbeTimeout time.Duration

	// Pool supplies request buffers; shared across clients.
	Pool *bufpool.Pool
	// Logger receives connection lifecycle events.
	Logger logger.Logger
	// Metrics records command and connection metrics; nil disables them.
	Metrics *metric.Registry
	// Dial replaces the default TCP dialer.
	Dial DialFunc
}

// DefaultOptions returns options with the default idle timeout.
func DefaultOptions() Options {
	return Options{
		IdleTimeout:  DefaultIdleTimeout,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout == 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.Pool == nil {
		o.Pool = bufpool.New()
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Dial == nil {
		d := &net.Dialer{KeepAlive: defaultKeepAlive}
		o.Dial = d.DialContext
	}
	return o
}

// OptionsFromConfig maps the timeouts and buffer sections of cfg. Logger
// and Metrics are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ConnectTimeout: cfg.Timeouts.Connect,
		SendTimeout:    cfg.Timeouts.Send,
		ReceiveTimeout: cfg.Timeouts.Receive,
		IdleTimeout:    cfg.Timeouts.Idle,
		Pool:           BufferPool(cfg),
	}
}

// BufferPool builds a request buffer pool from the buffer section of cfg.
func BufferPool(cfg *config.Config) *bufpool.Pool {
	return bufpool.New(
		bufpool.WithBufferLength(cfg.Buffer.Length),
		bufpool.WithMaxSize(cfg.Buffer.PoolMaxSize),
	)
}
