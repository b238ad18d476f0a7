package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/auth"
	"github.com/Clark-Hu/learnhub/internal/domain"
)

// requestLogger is the zap counterpart of chi's middleware.Logger.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("http: request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr))
		})
	}
}

// authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.verifier.Authenticate(r)
		if err != nil {
			message := "Missing or invalid authentication information"
			if errors.Is(err, auth.ErrExpiredCredentials) {
				message = "Token expired"
			}
			s.logger.Debug("http: authentication failed", zap.Error(err))
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

// requireRole lets through callers whose role is at least min.
func (s *Server) requireRole(min domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.FromContext(r.Context())
			if !ok || !actor.Role.AtLeast(min) {
				s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actorFrom returns the authenticated caller; authenticate guarantees presence.
func actorFrom(r *http.Request) domain.Actor {
	actor, _ := auth.FromContext(r.Context())
	return actor
}

// resolveUser returns the user a request acts for. Naming another user needs admin rights.
func resolveUser(actor domain.Actor, requested *string) (string, bool) {
	if requested == nil || *requested == "" || *requested == actor.UserID {
		return actor.UserID, true
	}
	if !actor.Role.AtLeast(domain.RoleAdmin) {
		return "", false
	}
	return *requested, true
}
