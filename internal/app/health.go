package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startHealthcheckServer runs the health check HTTP server, which also
// exposes the prometheus metrics registry. It shuts down gracefully when
// the context is cancelled.
func (a *App) startHealthcheckServer(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("Health check server failed unexpectedly", "error", err)
	}
}

// serveWebhook runs the dispatch webhook server until the context is
// cancelled, then shuts it down gracefully.
func (a *App) serveWebhook(ctx context.Context, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/dispatch", handler)

	addr := fmt.Sprintf(":%d", a.config.ListenPort)
	server := &http.Server{Addr: addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("📡 Dispatch webhook listening", "address", fmt.Sprintf("http://localhost%s/dispatch", addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("Dispatch webhook shut down gracefully.")
		return nil
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dispatch webhook failed: %w", err)
		}
		return nil
	}
}
