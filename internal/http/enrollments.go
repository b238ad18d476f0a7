package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := s.svc.Enroll(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "enroll", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, enrollment)
}

func (s *Server) handleUnenroll(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Unenroll(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, r, "unenroll", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollment, err := s.svc.GetEnrollment(r.Context(), actorFrom(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "load enrollment", err)
		return
	}
	s.respondJSON(w, http.StatusOK, enrollment)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := s.svc.ListEnrollments(r.Context(), actorFrom(r).UserID)
	if err != nil {
		s.respondServiceError(w, r, "list enrollments", err)
		return
	}
	if enrollments == nil {
		enrollments = []domain.Enrollment{}
	}
	s.respondJSON(w, http.StatusOK, enrollments)
}

func (s *Server) handleCourseAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.svc.CourseAnalytics(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "load analytics", err)
		return
	}
	s.respondJSON(w, http.StatusOK, analytics)
}
