package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/sri0310-dev/tesseract/internal/config"
	apierrors "github.com/sri0310-dev/tesseract/internal/errors"
	"github.com/sri0310-dev/tesseract/internal/infrastructure"
	"github.com/sri0310-dev/tesseract/internal/service"
)

// NewRouter assembles the full router: middleware stack, API routes,
// health and telemetry endpoints.
func NewRouter(cfg config.ServerConfig, svc *service.Service, tel *infrastructure.Telemetry, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))
	if cfg.RateLimit.Enabled {
		r.Use(rateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst))
	}

	handler := NewHandler(svc, logger)
	r.Mount("/api", handler.Routes())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{"status": "ok"})
	})
	if tel != nil {
		r.Method(http.MethodGet, "/metrics", tel.ScrapeHandler)
	}
	return r
}

// NewServer builds the HTTP server around the router.
func NewServer(cfg config.ServerConfig, router chi.Router) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// rateLimiter applies a global token-bucket limit.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				apierrors.RenderError(w, r, apierrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each request with its chi request id as trace id.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if reqID := middleware.GetReqID(ctx); reqID != "" {
				ctx = infrastructure.WithTraceID(ctx, reqID)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Shutdown drains the server within the configured timeout.
func Shutdown(ctx context.Context, srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	logger.InfoContext(shutdownCtx, "shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
