package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/becas"
	httpAdapter "github.com/aretw0/becas/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
)

// ShutdownTimeout bounds how long in-flight requests may run after a signal.
const ShutdownTimeout = 5 * time.Second

// Handler returns the HTTP API of the app. /metrics serves gatherer.
func Handler(app *App, gatherer prometheus.Gatherer) http.Handler {
	return httpAdapter.NewHandler(app.Engine,
		httpAdapter.WithLogger(app.Logger.With("component", "http")),
		httpAdapter.WithVersion(becas.Version),
		httpAdapter.WithGatherer(gatherer),
	)
}

// Serve runs the HTTP API on port until ctx ends, then drains in-flight requests.
func Serve(ctx context.Context, app *App, port int, gatherer prometheus.Gatherer) error {
	if err := app.WatchCatalog(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Handler(app, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting Server", "address", srv.Addr, "catalog", app.Config.Catalog.Driver, "store", app.Config.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		app.Logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		app.Logger.Info("Server stopped gracefully")
		return nil
	}
}
