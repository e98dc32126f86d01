// Package server exposes the HTTP surface: health, poller status, and
// Prometheus metrics. It injects correlation IDs into request contexts for
// consistent logging.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/chat-speaker/chat"
	"github.com/onnwee/chat-speaker/telemetry"
)

// StatusFunc supplies the current poller snapshot for /status.
type StatusFunc func() chat.Status

// NewMux returns the HTTP handler with all routes.
func NewMux(status StatusFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var s chat.Status
		if status != nil {
			s = status()
		}
		if err := json.NewEncoder(w).Encode(s); err != nil {
			slog.Error("encode status", slog.Any("err", err))
		}
	})

	return correlationMiddleware(mux)
}

// correlationMiddleware tags each request context with a correlation id,
// honoring an incoming X-Correlation-ID header, and starts a tracing span
// for the request.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", corr)
		ctx := telemetry.WithCorrelation(r.Context(), corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
		)
		defer span.End()

		slog.LogAttrs(ctx, slog.LevelDebug, "request",
			telemetry.LogAttrs(ctx,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)...)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Start(ctx context.Context, addr string, status StatusFunc) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(status),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
