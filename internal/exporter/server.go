package exporter

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Router serves /metrics, /health and /score
func (e *Exporter) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/score", func(w http.ResponseWriter, _ *http.Request) {
		latest, ok := e.Latest()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no score computed yet"})
			return
		}
		writeJSON(w, http.StatusOK, latest)
	})
	r.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully
func (e *Exporter) Serve(ctx context.Context, addr string, log logger.Logger) error {
	errFactory := errors.New()

	if addr == "" {
		return errFactory.New(ErrInvalidListen)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errFactory.WithData(ErrServeFailed, struct {
			Phase string
			Addr  string
			Error string
		}{
			Phase: "listen",
			Addr:  addr,
			Error: err.Error(),
		})
	}

	srv := &http.Server{
		Handler:           e.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Exporter listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errFactory.Wrap(ErrServeFailed, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(ErrShutdownFailed, err)
	}

	log.Debug().Msg("Exporter stopped")

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
