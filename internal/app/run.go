package app

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"smpserver/internal/platform/httpserver"
)

// Serve runs the HTTP server, the audit worker and the rate limiter sweeper
// until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := httpserver.New(a.Config.Server, a.Router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		a.Logger.InfoContext(shutdownCtx, "shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.Limiter.Run(gctx)
	})
	g.Go(func() error {
		if err := a.Worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}
