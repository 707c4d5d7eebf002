package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/validation"
)

type sessionEngine interface {
	Current() *models.Question
	SelectRandomQuestion(ctx context.Context) (*models.Question, error)
	CompleteQuestion(ctx context.Context, result models.Result, timeSpent float64) (*models.Question, error)
	CompleteCurrentSession(ctx context.Context, result models.Result) (*models.Question, error)
}

type SessionHandler struct {
	engine    sessionEngine
	validator *validation.Validator
	log       logrus.FieldLogger
}

func NewSessionHandler(engine sessionEngine, v *validation.Validator, log logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{engine: engine, validator: v, log: log}
}

// Current returns the active question, or null when there is none.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question": h.engine.Current(),
	})
}

func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	q, err := h.engine.SelectRandomQuestion(r.Context())
	if err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question":        q,
		"session_minutes": q.CurrentSessionTime,
	})
}

// Complete records the outcome of the active session. Without time_spent
// the whole session time is charged.
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := h.validator.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	var (
		q   *models.Question
		err error
	)
	if req.TimeSpent != nil {
		q, err = h.engine.CompleteQuestion(r.Context(), req.Result, *req.TimeSpent)
	} else {
		q, err = h.engine.CompleteCurrentSession(r.Context(), req.Result)
	}
	if err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}
