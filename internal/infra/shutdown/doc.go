// Package shutdown runs long-lived CLI work until it finishes or the
// process is asked to stop.
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	err := h.Run(ctx, func(ctx context.Context) error { return sub.Run(ctx) })
//
// Hooks run after the task returns, newest first, sharing one timeout.
package shutdown
