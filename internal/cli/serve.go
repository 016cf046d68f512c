package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/sismos/internal/app"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the scraper as an HTTP trigger",
	Long: `Starts an HTTP server that runs the scraper on demand.

  POST /run      runs once and answers with the result status code and body
  GET  /healthz  liveness check
  GET  /metrics  Prometheus metrics

Overlapping POST /run requests are executed one after the other.`,
	Example: `  # Listen on the default address
  sismos serve

  # Trigger a run from another shell
  curl -X POST localhost:8080/run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	srv := &http.Server{
		Addr:              a.Config.ListenAddr,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", srv.Addr).Msg("Listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
		log.Info().Msg("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func newRouter(a *app.Application) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
		res := a.Run(req.Context())
		writeJSON(w, res.StatusCode, res.Body)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"uptime": a.Uptime().Round(time.Second).String(),
		})
	})
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
