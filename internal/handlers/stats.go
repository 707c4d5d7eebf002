package handlers

import (
	"net/http"

	"studytracker-backend/internal/models"
)

type statsEngine interface {
	Stats() models.Stats
}

type StatsHandler struct {
	engine statsEngine
}

func NewStatsHandler(engine statsEngine) *StatsHandler {
	return &StatsHandler{engine: engine}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}
