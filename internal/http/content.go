package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/learning"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

type contentRequest struct {
	Kind        string              `json:"kind" validate:"required,oneof=course video book"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description,omitempty"`
	Video       *domain.VideoAsset  `json:"video,omitempty"`
	Book        *domain.BookDetails `json:"book,omitempty"`
}

type lessonRequest struct {
	ContentID string `json:"contentId" validate:"required"`
	Title     string `json:"title,omitempty" validate:"max=200"`
}

type contentListResponse struct {
	Items      []domain.ContentItem `json:"items"`
	NextCursor *string              `json:"nextCursor,omitempty"`
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	item, err := s.svc.CreateContent(r.Context(), actorFrom(r), learning.ContentInput{
		Kind:        domain.ContentKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Video:       req.Video,
		Book:        req.Book,
	})
	if err != nil {
		s.respondServiceError(w, r, "create content", err)
		return
	}

	w.Header().Set("Location", "/api/content/"+url.PathEscape(item.ID))
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.GetContent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "load content", err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	filters, err := buildContentFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.svc.ListContent(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, r, "list content", err)
		return
	}
	items := result.Items
	if items == nil {
		items = []domain.ContentItem{}
	}
	s.respondJSON(w, http.StatusOK, contentListResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	})
}

func (s *Server) handleAddLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	course, err := s.svc.AddLesson(r.Context(), actorFrom(r), chi.URLParam(r, "id"), learning.LessonInput{
		ContentID: req.ContentID,
		Title:     req.Title,
	})
	if err != nil {
		s.respondServiceError(w, r, "add lesson", err)
		return
	}
	s.respondJSON(w, http.StatusOK, course)
}

func buildContentFilters(values url.Values) (repository.ContentListFilters, error) {
	var filters repository.ContentListFilters

	if kind := strings.ToLower(strings.TrimSpace(values.Get("kind"))); kind != "" {
		k := domain.ContentKind(kind)
		filters.Kind = &k
	}
	if q := strings.TrimSpace(values.Get("q")); q != "" {
		filters.Query = &q
	}
	if instructor := strings.TrimSpace(values.Get("instructorId")); instructor != "" {
		filters.InstructorID = &instructor
	}
	if limitStr := strings.TrimSpace(values.Get("limit")); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return filters, errors.New("invalid limit value")
		}
		filters.Limit = limit
	}
	if cursorStr := strings.TrimSpace(values.Get("cursor")); cursorStr != "" {
		cursor, err := repository.DecodeCursor(cursorStr)
		if err != nil {
			return filters, errors.New("invalid cursor")
		}
		filters.Cursor = cursor
	}

	return filters, nil
}
