package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/auth"
	"github.com/Clark-Hu/learnhub/internal/config"
	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/learning"
	"github.com/Clark-Hu/learnhub/internal/metrics"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	svc      *learning.Service
	verifier *auth.Verifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, health HealthChecker, svc *learning.Service, verifier *auth.Verifier, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Location", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindowSecs)*time.Second))
	}

	s := &Server{
		cfg:      cfg,
		health:   health,
		svc:      svc,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/videos/rating", s.handleSubmitVideoRating)
		r.Post("/progress", s.handleRecordProgress)
		r.Get("/enrollments", s.handleListEnrollments)

		r.Route("/content", func(r chi.Router) {
			r.Get("/", s.handleListContent)
			r.With(s.requireRole(domain.RoleInstructor)).Post("/", s.handleCreateContent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetContent)
				r.Post("/ratings", s.handleSubmitContentRating)
				r.Get("/ratings", s.handleListRatings)
				r.Get("/rating", s.handleGetRating)
			})
		})

		r.Route("/courses/{id}", func(r chi.Router) {
			r.Post("/enroll", s.handleEnroll)
			r.Delete("/enroll", s.handleUnenroll)
			r.Get("/enrollment", s.handleGetEnrollment)
			r.With(s.requireRole(domain.RoleInstructor)).Post("/lessons", s.handleAddLesson)
			r.With(s.requireRole(domain.RoleInstructor)).Get("/analytics", s.handleCourseAnalytics)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is done or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Warn("http: health check failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store unreachable")
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
