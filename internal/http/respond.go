package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/learning"
	"github.com/Clark-Hu/learnhub/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

// statusClientClosedRequest is nginx's non-standard code for a caller that went away.
const statusClientClosedRequest = 499

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and runs struct validation,
// writing the error response itself. It reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		s.respondDecodeError(w, err)
		return false
	}
	if err := validation.Struct(dst); err != nil {
		var reqErr *validation.RequestError
		if errors.As(err, &reqErr) {
			s.respondErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", reqErr.Error(), reqErr.Details())
			return false
		}
		s.logger.Error("http: validator failure", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate request")
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("http: failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondErrorDetails(w, status, code, message, nil)
}

func (s *Server) respondErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// respondServiceError maps the service error taxonomy onto status codes.
// Anything unclassified is logged and reported as an internal error.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, learning.ErrInvalidReference):
		s.respondError(w, http.StatusBadRequest, "INVALID_REFERENCE", err.Error())
	case errors.Is(err, learning.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, learning.ErrInvalidRating),
		errors.Is(err, learning.ErrInvalidProgress),
		errors.Is(err, learning.ErrInvalidContent):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, learning.ErrConflict):
		s.respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, learning.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, context.Canceled):
		s.logger.Debug("http: "+op+" canceled by client", zap.String("path", r.URL.Path))
		s.respondError(w, statusClientClosedRequest, "REQUEST_CANCELED", "Request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("http: "+op+" timed out", zap.String("path", r.URL.Path))
		s.respondError(w, http.StatusServiceUnavailable, "TIMEOUT", "Request timed out")
	default:
		s.logger.Error("http: "+op+" failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+op)
	}
}
