package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/middleware"
	"studytracker-backend/internal/models"
	"studytracker-backend/internal/scheduler"
)

// noEligibleMessage is shown when selection finds nothing to work on.
const noEligibleMessage = "No eligible questions available. All questions are either completed, in their 3-hour rest period, or have run out of time."

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleEngineError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, scheduler.ErrNoEligibleQuestions):
		writeJSON(w, http.StatusConflict, errorResp("NO_ELIGIBLE_QUESTIONS", noEligibleMessage, r))
	case errors.Is(err, scheduler.ErrNoActiveQuestion):
		writeJSON(w, http.StatusConflict, errorResp("NO_ACTIVE_QUESTION", "There is no active question", r))
	case errors.Is(err, scheduler.ErrQuestionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
	case errors.Is(err, scheduler.ErrInvalidQuestion), errors.Is(err, scheduler.ErrInvalidResult):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("INVALID_OPERATION", err.Error(), r))
	default:
		log.WithError(err).WithField("request_id", r.Header.Get(middleware.RequestIDHeader)).Error("engine operation failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
