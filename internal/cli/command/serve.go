package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goresp/internal/cli/connection"
	"github.com/yndnr/goresp/internal/config"
	"github.com/yndnr/goresp/internal/infra/confloader"
	"github.com/yndnr/goresp/internal/infra/shutdown"
	"github.com/yndnr/goresp/internal/telemetry/logger"
)

// hookTimeout bounds the shutdown hooks of long-running commands.
const hookTimeout = 5 * time.Second

// serveMetrics starts the /metrics listener when metrics.addr is set and
// stops it when h shuts down.
func serveMetrics(mgr *connection.Manager, h *shutdown.Handler) error {
	addr := mgr.Config().Metrics.Addr
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", mgr.Metrics().Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := mgr.Logger().With("component", "metrics")
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	h.OnShutdown(srv.Shutdown)
	log.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// watchConfig reloads the config file on change and applies a new log
// level. Other settings need a restart.
func watchConfig(c *cli.Context, mgr *connection.Manager, h *shutdown.Handler) error {
	path := c.String("config")
	if path == "" {
		return nil
	}
	log := mgr.Logger()
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return err
	}

	flags := overrides(c)
	w.OnChange(func(string) { reloadLogLevel(path, flags, log) })
	w.StartAsync()
	h.OnShutdown(func(context.Context) error { return w.Stop() })
	return nil
}

func reloadLogLevel(path string, flags map[string]any, log logger.Logger) {
	cfg, err := config.Load(path, flags)
	if err != nil {
		log.Warn("config reload failed", "path", path, "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	logger.SetLevel(cfg.Log.Level)
	log.Info("log level changed", "level", cfg.Log.Level)
}
