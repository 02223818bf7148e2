// Package command provides typed wrappers over the protocol client, one
// per command group. Every wrapper validates its arguments before any I/O.
package command

import (
	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/redis/client"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
	"github.com/yndnr/goresp/pkg/bufpool"
)

// Context bundles one client with every command group.
type Context struct {
	Client *client.Client

	Connection  Connection
	Key         Key
	String      String
	Expire      Expire
	Number      Number
	Bit         Bit
	Hash        Hash
	List        List
	Set         Set
	SortedSet   SortedSet
	Script      Script
	Server      Server
	Transaction Transaction
	Sort        Sort
	PubSub      PubSub

	log     logger.Logger
	metrics *metric.Registry
}

// New wraps an existing client.
func New(c *client.Client) *Context {
	return newContext(c, logger.Nop(), nil)
}

func newContext(c *client.Client, log logger.Logger, m *metric.Registry) *Context {
	ctx := &Context{
		Client:      c,
		Connection:  Connection{c: c},
		Key:         Key{c: c},
		String:      String{c: c},
		Expire:      Expire{c: c},
		Number:      Number{c: c},
		Bit:         Bit{c: c},
		Hash:        Hash{c: c},
		List:        List{c: c},
		Set:         Set{c: c},
		SortedSet:   SortedSet{c: c},
		Script:      Script{c: c},
		Server:      Server{c: c},
		Transaction: Transaction{c: c},
		Sort:        Sort{c: c},
		log:         log,
		metrics:     m,
	}
	ctx.PubSub = PubSub{c: c, ctx: ctx}
	return ctx
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	log     logger.Logger
	metrics *metric.Registry
	buffers *bufpool.Pool
}

// WithLogger sets the client and subscription logger.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) { o.log = l }
}

// WithMetrics records client metrics into m.
func WithMetrics(m *metric.Registry) Option {
	return func(o *openOptions) { o.metrics = m }
}

// WithBufferPool shares p instead of building a pool from the buffer
// section of the config.
func WithBufferPool(p *bufpool.Pool) Option {
	return func(o *openOptions) { o.buffers = p }
}

// Open verifies cfg and builds a context over a new client. The client
// connects on first use.
func Open(cfg *config.Config, opts ...Option) (*Context, error) {
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	o := openOptions{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	copts := client.OptionsFromConfig(cfg)
	copts.Logger = o.log
	copts.Metrics = o.metrics
	if o.buffers != nil {
		copts.Pool = o.buffers
	}
	c := client.New(cfg.Endpoint(), copts)
	return newContext(c, o.log, o.metrics), nil
}

// Close disposes the client.
func (c *Context) Close() error {
	return c.Client.Close()
}
