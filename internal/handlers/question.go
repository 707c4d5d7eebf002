package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/validation"
)

type questionEngine interface {
	AddQuestion(ctx context.Context, in models.QuestionInput) (*models.Question, error)
	Questions() []*models.Question
	Question(id int64) (*models.Question, error)
	ReplaceQuestion(ctx context.Context, id int64, q *models.Question) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

type QuestionHandler struct {
	engine    questionEngine
	validator *validation.Validator
	log       logrus.FieldLogger
}

func NewQuestionHandler(engine questionEngine, v *validation.Validator, log logrus.FieldLogger) *QuestionHandler {
	return &QuestionHandler{engine: engine, validator: v, log: log}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions := h.engine.Questions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := h.validator.Struct(req); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	q, err := h.engine.AddQuestion(r.Context(), req)
	if err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, q)
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	q, err := h.engine.Question(id)
	if err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// Replace overwrites a question with the full record in the body.
func (h *QuestionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if q.ID != 0 && q.ID != id {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question ID does not match the URL", r))
		return
	}

	updated, err := h.engine.ReplaceQuestion(r.Context(), id, &q)
	if err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	if err := h.engine.DeleteQuestion(r.Context(), id); err != nil {
		handleEngineError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
