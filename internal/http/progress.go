package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/learning"
)

type progressRequest struct {
	ContentType string   `json:"contentType,omitempty" validate:"omitempty,oneof=video book"`
	ContentID   string   `json:"contentId" validate:"required"`
	Course      string   `json:"course" validate:"required"`
	Progress    *float64 `json:"progress" validate:"required"`
	UserID      *string  `json:"userId,omitempty"`
}

type progressResponse struct {
	Status         string                `json:"status"`
	Message        string                `json:"message"`
	Enrollment     domain.Enrollment     `json:"enrollment"`
	Lesson         domain.LessonProgress `json:"lesson"`
	NewlyCompleted bool                  `json:"newlyCompleted"`
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := resolveUser(actorFrom(r), req.UserID)
	if !ok {
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Cannot record progress for another user")
		return
	}

	result, err := s.svc.RecordProgress(r.Context(), learning.ProgressInput{
		UserID:      userID,
		CourseID:    req.Course,
		LessonID:    req.ContentID,
		ContentType: domain.ContentKind(req.ContentType),
		Percent:     *req.Progress,
	})
	if err != nil {
		s.respondServiceError(w, r, "record progress", err)
		return
	}

	message := "Progress updated"
	if result.NewlyCompleted {
		message = "Lesson completed"
	}
	s.respondJSON(w, http.StatusOK, progressResponse{
		Status:         "success",
		Message:        message,
		Enrollment:     result.Enrollment,
		Lesson:         result.Lesson,
		NewlyCompleted: result.NewlyCompleted,
	})
}
