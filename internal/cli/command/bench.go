package command

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/goresp/internal/cli/output"
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/infra/shutdown"
	rcmd "github.com/yndnr/goresp/internal/redis/command"
)

// benchOp runs one benchmark request.
type benchOp func(rc *rcmd.Context, key string, value []byte) error

var benchOps = map[string]benchOp{
	"ping": func(rc *rcmd.Context, _ string, _ []byte) error {
		_, err := rc.Connection.Ping()
		return err
	},
	"set": func(rc *rcmd.Context, key string, value []byte) error {
		_, err := rc.String.Set(key, value, rcmd.SetOptions{})
		return err
	},
	"get": func(rc *rcmd.Context, key string, _ []byte) error {
		_, err := rc.String.Get(key)
		return err
	},
	"incr": func(rc *rcmd.Context, key string, _ []byte) error {
		_, err := rc.Number.Incr(key)
		return err
	},
}

// BenchReport is the result of a bench run.
type BenchReport struct {
	Command    string        `json:"command" yaml:"command"`
	Clients    int           `json:"clients" yaml:"clients"`
	Requests   int64         `json:"requests" yaml:"requests"`
	Errors     int64         `json:"errors" yaml:"errors"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Throughput float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	Pool       PoolReport    `json:"pool" yaml:"pool"`
}

// PoolReport is the client pool state after a bench run.
type PoolReport struct {
	Active int `json:"active" yaml:"active"`
	Idle   int `json:"idle" yaml:"idle"`
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run a command from concurrent pooled clients and report throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "command",
				Usage: "ping, set, get or incr",
				Value: "ping",
			},
			&cli.IntFlag{
				Name:  "clients",
				Usage: "concurrent clients, capped by pool.max_total",
				Value: 8,
			},
			&cli.Int64Flag{
				Name:  "requests",
				Usage: "total requests",
				Value: 10000,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "requests per second across all clients (0 is unlimited)",
			},
			&cli.IntFlag{
				Name:  "keyspace",
				Usage: "number of distinct keys",
				Value: 1000,
			},
			&cli.StringFlag{
				Name:  "key-prefix",
				Usage: "prefix of the generated keys",
				Value: "bench:",
			},
			&cli.IntFlag{
				Name:  "value-size",
				Usage: "bytes per value for set",
				Value: 3,
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "do not draw progress",
			},
		},
		Action: bench,
	}
}

func bench(c *cli.Context) error {
	name := strings.ToLower(c.String("command"))
	op, ok := benchOps[name]
	if !ok {
		return domain.InvalidArgument("command", "must be ping, set, get or incr")
	}
	clients, total, keyspace := c.Int("clients"), c.Int64("requests"), c.Int("keyspace")
	switch {
	case clients <= 0:
		return domain.InvalidArgument("clients", "must be positive")
	case total <= 0:
		return domain.InvalidArgument("requests", "must be positive")
	case keyspace <= 0:
		return domain.InvalidArgument("keyspace", "must be positive")
	case c.Float64("rate") < 0:
		return domain.InvalidArgument("rate", "must not be negative")
	case c.Int("value-size") < 0:
		return domain.InvalidArgument("value-size", "must not be negative")
	}

	mgr, err := manager(c)
	if err != nil {
		return err
	}
	pool, err := mgr.Pool()
	if err != nil {
		return err
	}
	if limit := mgr.Config().Pool.MaxTotal; clients > limit {
		clients = limit
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if r := c.Float64("rate"); r > 0 {
		limiter = rate.NewLimiter(rate.Limit(r), clients)
	}
	value := []byte(strings.Repeat("x", c.Int("value-size")))
	prefix := c.String("key-prefix")
	log := mgr.Logger().With("component", "bench")

	var progress *output.Progress
	if !c.Bool("quiet") {
		progress = output.NewProgress(c.App.ErrWriter, name, total)
	}

	var (
		next    atomic.Int64
		done    atomic.Int64
		failed  atomic.Int64
		logOnce sync.Once
	)
	worker := func(ctx context.Context) {
		for {
			n := next.Add(1)
			if n > total || ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			key := prefix + strconv.FormatInt(n%int64(keyspace), 10)
			err := pool.Do(ctx, func(rc *rcmd.Context) error { return op(rc, key, value) })
			done.Add(1)
			if err != nil {
				failed.Add(1)
				logOnce.Do(func() { log.Warn("request failed", "error", err) })
			}
			if progress != nil {
				progress.Add(1)
			}
		}
	}

	h := shutdown.NewHandler(hookTimeout)
	if err := serveMetrics(mgr, h); err != nil {
		return err
	}

	start := time.Now()
	err = h.Run(c.Context, func(ctx context.Context) error {
		var wg sync.WaitGroup
		for i := 0; i < clients; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker(ctx)
			}()
		}
		wg.Wait()
		return ctx.Err()
	})
	elapsed := time.Since(start)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	report := BenchReport{
		Command:  name,
		Clients:  clients,
		Requests: done.Load(),
		Errors:   failed.Load(),
		Elapsed:  elapsed.Round(time.Millisecond),
		Pool:     PoolReport{Active: pool.NumActive(), Idle: pool.NumIdle()},
	}
	if secs := elapsed.Seconds(); secs > 0 {
		report.Throughput = float64(report.Requests) / secs
	}
	return render(c, report)
}
