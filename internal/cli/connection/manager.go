package connection

import (
	"context"
	"sync"

	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/redis/client"
	"github.com/yndnr/goresp/internal/redis/clientpool"
	"github.com/yndnr/goresp/internal/redis/command"
	"github.com/yndnr/goresp/internal/telemetry/logger"
	"github.com/yndnr/goresp/internal/telemetry/metric"
	"github.com/yndnr/goresp/pkg/bufpool"
)

// Manager manages the clients of one CLI invocation.
type Manager struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metric.Registry
	buffers *bufpool.Pool

	mu      sync.Mutex
	current *command.Context
	pool    *clientpool.Pool
}

// NewManager creates a manager for cfg. metrics may be nil.
func NewManager(cfg *config.Config, log logger.Logger, metrics *metric.Registry) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		buffers: client.BufferPool(cfg),
	}
	if err := metrics.Register(metric.NewBufferPoolCollector(m.buffers)); err != nil {
		log.Warn("buffer pool metrics not registered", "error", err)
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() *config.Config { return m.cfg }

// Logger returns the CLI logger.
func (m *Manager) Logger() logger.Logger { return m.log }

// Metrics returns the metrics registry, possibly nil.
func (m *Manager) Metrics() *metric.Registry { return m.metrics }

// Connect returns the shared client, opening and connecting it on first
// use.
func (m *Manager) Connect(ctx context.Context) (*command.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Client.State() != client.StateDisposed {
		return m.current, nil
	}
	c, err := command.Open(m.cfg,
		command.WithLogger(m.log),
		command.WithMetrics(m.metrics),
		command.WithBufferPool(m.buffers),
	)
	if err != nil {
		return nil, err
	}
	if err := c.Client.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	m.current = c
	return c, nil
}

// Current returns the shared client, or nil before Connect.
func (m *Manager) Current() *command.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsConnected reports whether the shared client holds an open connection.
func (m *Manager) IsConnected() bool {
	c := m.Current()
	return c != nil && c.Client.State() == client.StateConnected
}

// Pool returns the client pool, creating it on first use.
func (m *Manager) Pool() (*clientpool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		return m.pool, nil
	}
	p, err := clientpool.New(m.cfg, clientpool.Options{
		Logger:  m.log,
		Metrics: m.metrics,
		Buffers: m.buffers,
	})
	if err != nil {
		return nil, err
	}
	if err := m.metrics.Register(metric.NewClientPoolCollector(p)); err != nil {
		m.log.Warn("client pool metrics not registered", "error", err)
	}
	m.pool = p
	return p, nil
}

// Close disposes the shared client and the pool, then empties the buffer
// pool.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.current != nil {
		err = m.current.Close()
		m.current = nil
	}
	if m.pool != nil {
		m.pool.Close(ctx)
		m.pool = nil
	}
	m.buffers.Clear()
	return err
}
