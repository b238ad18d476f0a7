package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/learning"
)

type videoRatingRequest struct {
	VideoID string   `json:"videoId" validate:"required"`
	UserID  *string  `json:"userId,omitempty"`
	Rating  *float64 `json:"rating" validate:"required"`
	Comment string   `json:"comment,omitempty" validate:"max=2000"`
}

type contentRatingRequest struct {
	UserID  *string  `json:"userId,omitempty"`
	Rating  *float64 `json:"rating" validate:"required"`
	Comment string   `json:"comment,omitempty" validate:"max=2000"`
}

type ratingResponse struct {
	Status        string             `json:"status"`
	Message       string             `json:"message"`
	Action        string             `json:"action"`
	AverageRating float64            `json:"averageRating"`
	RatingCount   int                `json:"ratingCount"`
	Rating        domain.RatingEntry `json:"rating"`
}

func (s *Server) handleSubmitVideoRating(w http.ResponseWriter, r *http.Request) {
	var req videoRatingRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	s.submitRating(w, r, req.VideoID, req.UserID, *req.Rating, req.Comment, domain.KindVideo)
}

func (s *Server) handleSubmitContentRating(w http.ResponseWriter, r *http.Request) {
	var req contentRatingRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	s.submitRating(w, r, chi.URLParam(r, "id"), req.UserID, *req.Rating, req.Comment, "")
}

func (s *Server) submitRating(w http.ResponseWriter, r *http.Request, contentID string, requestedUser *string, value float64, comment string, kind domain.ContentKind) {
	userID, ok := resolveUser(actorFrom(r), requestedUser)
	if !ok {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot rate on behalf of another user")
		return
	}

	result, err := s.svc.SubmitRating(r.Context(), learning.RatingInput{
		ContentID: contentID,
		UserID:    userID,
		Value:     value,
		Comment:   comment,
		Kind:      kind,
	})
	if err != nil {
		s.respondServiceError(w, r, "submit rating", err)
		return
	}

	resp := ratingResponse{
		Status:        "success",
		Message:       "Rating updated",
		Action:        "updated",
		AverageRating: result.Summary.Average,
		RatingCount:   result.Summary.Count,
		Rating:        result.Entry,
	}
	status := http.StatusOK
	if result.Inserted {
		resp.Message = "Rating added"
		resp.Action = "inserted"
		status = http.StatusCreated
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.RatingSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "load rating", err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ListRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, "list ratings", err)
		return
	}
	if entries == nil {
		entries = []domain.RatingEntry{}
	}
	s.respondJSON(w, http.StatusOK, entries)
}
