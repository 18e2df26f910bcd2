package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/star/exotransit/internal/auth"
	"github.com/star/exotransit/internal/catalog"
	"github.com/star/exotransit/internal/health"
	"github.com/star/exotransit/internal/marketcap"
	"github.com/star/exotransit/internal/metrics"
	"github.com/star/exotransit/internal/observability"
	"github.com/star/exotransit/internal/stream"
	"github.com/star/exotransit/internal/transit"
)

// Options carries the server's dependencies. Nil MarketCap disables the
// market-cap routes; nil Stream disables the orbit stream.
type Options struct {
	Addr       string
	Logger     *slog.Logger
	Auth       auth.Config
	TrustProxy bool
	Readiness  *health.Readiness
	Sites      *catalog.Store
	MarketCap  *marketcap.Refresher
	Stream     *stream.Handler

	DefaultSamples int
	MaxSamples     int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	opts       Options
}

// NewServer creates a configured HTTP server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Readiness == nil {
		opts.Readiness = health.NewReadiness()
	}
	if opts.Sites == nil {
		opts.Sites = catalog.NewStore()
	}
	if opts.DefaultSamples <= 0 {
		opts.DefaultSamples = transit.DefaultSamples
	}
	if opts.MaxSamples <= 0 || opts.MaxSamples > transit.MaxSamples {
		opts.MaxSamples = transit.MaxSamples
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 120 * time.Second
	}

	s := &Server{logger: opts.Logger, opts: opts}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Middleware chain: metrics -> logging -> tracing -> auth -> routes.
	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware)
	r.Use(auth.Middleware(s.opts.Auth))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", s.opts.Readiness.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lightcurve", s.handleLightCurve)
		r.Get("/occlusion", s.handleOcclusion)
		r.Get("/star", s.handleStar)
		r.Get("/ephemeris", s.handleEphemeris)

		r.Get("/sites", s.handleSites)
		r.Get("/sites/{collection}", s.handleCollection)
		r.Get("/sites/{collection}/{site}", s.handleSite)

		r.Get("/marketcap", s.handleMarketCap)
		r.Post("/marketcap/refresh", s.handleMarketCapRefresh)

		if s.opts.Stream != nil {
			r.Get("/stream/orbit", s.opts.Stream.HandleOrbit)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
