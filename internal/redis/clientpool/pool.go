// Package clientpool shares a bounded set of clients between goroutines.
//
// A single client is not safe for concurrent use; the pool hands each
// borrower a client of its own and takes it back afterwards. Clients whose
// socket failed or that were closed are destroyed instead of reused.
package clientpool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	pool "github.com/jolestar/go-commons-pool/v2"

	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
	"github.com/yndnr/goresp/internal/redis/command"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
	"github.com/yndnr/goresp/pkg/bufpool"
)

// Pool is a bounded pool of connected command contexts.
type Pool struct {
	objects       *pool.ObjectPool
	borrowTimeout time.Duration
	log           logger.Logger
	closed        atomic.Bool
}

// Options configures New.
type Options struct {
	Logger  logger.Logger
	Metrics *metric.Registry
	// Buffers is shared by every pooled client; nil builds one per client.
	Buffers *bufpool.Pool
}

// New creates a pool sized by cfg.Pool. Clients are created on demand and
// connect before they are handed out.
func New(cfg *config.Config, opts Options) (*Pool, error) {
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	pc := pool.NewDefaultPoolConfig()
	pc.MaxTotal = cfg.Pool.MaxTotal
	pc.MaxIdle = cfg.Pool.MaxIdle
	pc.BlockWhenExhausted = true
	pc.TestOnBorrow = true
	pc.TestOnReturn = true

	f := &factory{cfg: cfg, opts: opts}
	p := &Pool{
		objects:       pool.NewObjectPool(context.Background(), f, pc),
		borrowTimeout: cfg.Pool.BorrowTimeout,
		log:           opts.Logger.With("component", "clientpool"),
	}
	p.log.Debug("pool created", "max_total", pc.MaxTotal, "max_idle", pc.MaxIdle)
	return p, nil
}

// Borrow takes a client from the pool, creating and connecting one if none
// is idle. It waits for a free client up to the configured borrow timeout
// or until ctx is done.
func (p *Pool) Borrow(ctx context.Context) (*command.Context, error) {
	if p.closed.Load() {
		return nil, domain.ErrClientClosed.WithDetails("pool closed")
	}
	if p.borrowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.borrowTimeout)
		defer cancel()
	}

	obj, err := p.objects.BorrowObject(ctx)
	if err != nil {
		var de *domain.DomainError
		switch {
		case errors.As(err, &de):
			return nil, err
		case ctx.Err() != nil:
			return nil, domain.ErrPoolExhausted.WithCause(err)
		default:
			return nil, domain.ErrConnectFailed.WithCause(err)
		}
	}
	return obj.(*command.Context), nil
}

// Return gives c back. A client that is closed, lost its connection or
// still has a pipeline open is destroyed instead.
func (p *Pool) Return(ctx context.Context, c *command.Context) error {
	if !reusable(c.Client) {
		return p.Invalidate(ctx, c)
	}
	return p.objects.ReturnObject(ctx, c)
}

// Invalidate destroys c; it must have come from Borrow.
func (p *Pool) Invalidate(ctx context.Context, c *command.Context) error {
	return p.objects.InvalidateObject(ctx, c)
}

// Do borrows a client, runs fn with it and returns it. A connection-level
// failure from fn destroys the client.
func (p *Pool) Do(ctx context.Context, fn func(*command.Context) error) error {
	c, err := p.Borrow(ctx)
	if err != nil {
		return err
	}
	err = fn(c)
	if domain.KindOf(err) == domain.KindConnection {
		if ierr := p.Invalidate(ctx, c); ierr != nil {
			p.log.Warn("invalidate failed", "client_id", c.Client.ID(), "error", ierr)
		}
		return err
	}
	if rerr := p.Return(ctx, c); rerr != nil {
		p.log.Warn("return failed", "client_id", c.Client.ID(), "error", rerr)
	}
	return err
}

// NumActive returns the number of borrowed clients.
func (p *Pool) NumActive() int { return p.objects.GetNumActive() }

// NumIdle returns the number of idle clients.
func (p *Pool) NumIdle() int { return p.objects.GetNumIdle() }

// Close destroys idle clients and refuses further borrows. Borrowed clients
// are destroyed when returned.
func (p *Pool) Close(ctx context.Context) {
	if p.closed.Swap(true) {
		return
	}
	p.objects.Close(ctx)
	p.log.Debug("pool closed")
}

func reusable(c *client.Client) bool {
	return c.State() == client.StateConnected && !c.Pipelining()
}

// factory implements pool.PooledObjectFactory over command contexts.
type factory struct {
	cfg  *config.Config
	opts Options
}

func (f *factory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	opts := []command.Option{command.WithLogger(f.opts.Logger), command.WithMetrics(f.opts.Metrics)}
	if f.opts.Buffers != nil {
		opts = append(opts, command.WithBufferPool(f.opts.Buffers))
	}
	c, err := command.Open(f.cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Client.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *factory) DestroyObject(_ context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*command.Context)
	if !ok {
		return errors.New("clientpool: unexpected pooled object")
	}
	return c.Close()
}

func (f *factory) ValidateObject(_ context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*command.Context)
	return ok && reusable(c.Client)
}

func (f *factory) ActivateObject(context.Context, *pool.PooledObject) error { return nil }

func (f *factory) PassivateObject(context.Context, *pool.PooledObject) error { return nil }
