package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
	"github.com/TalFeiny/Dilla-sub007/internal/pipeline"
	"github.com/TalFeiny/Dilla-sub007/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		table, err := loadBenchmarks()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, table, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(p, st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go awaitShutdown(ctx, srv)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 10 * time.Second

// awaitShutdown blocks until ctx is canceled, then drains the server with
// a fresh timeout context. The signal context is already done at that
// point, so it cannot be used for the drain itself.
func awaitShutdown(ctx context.Context, srv *http.Server) {
	<-ctx.Done()
	zap.L().Info("shutting down server")

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func newRouter(p *pipeline.Pipeline, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RequestsPerSec), cfg.Server.Burst))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := map[string]string{"status": "ok"}
		if st != nil {
			if err := st.Ping(req.Context()); err != nil {
				status["status"] = "degraded"
				status["store"] = err.Error()
			}
		}
		writeJSON(w, http.StatusOK, status)
	})

	r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body pipeline.Request
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.Facts.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "facts.name is required"})
			return
		}
		if body.Position.InvestmentAmount <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "position.investment_amount must be positive"})
			return
		}

		report, err := p.Run(req.Context(), body)
		if err != nil {
			zap.L().Error("analyze request failed",
				zap.String("company", body.Facts.Name),
				zap.Error(err),
			)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	r.Get("/v1/reports", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no store configured"})
			return
		}
		filter := store.ReportFilter{
			Company:        req.URL.Query().Get("company"),
			Recommendation: model.Recommendation(req.URL.Query().Get("recommendation")),
		}
		if limit, err := strconv.Atoi(req.URL.Query().Get("limit")); err == nil {
			filter.Limit = limit
		}

		summaries, err := st.ListReports(req.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	r.Get("/v1/reports/{runID}", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no store configured"})
			return
		}
		report, err := st.GetReport(req.Context(), chi.URLParam(req, "runID"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if report == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	return r
}

// rateLimit applies one shared token bucket across all requests.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = 10
	}
	if burst <= 0 {
		burst = 20
	}
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
