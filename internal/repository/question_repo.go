package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"studytracker-backend/internal/models"
)

// ErrNotFound is returned when no question has the requested id.
var ErrNotFound = errors.New("question not found")

const questionColumns = `id, source, problem, subject, total_time, remaining_time, status, never_look_up,
	attempts, time_spent, solved_independently, skipped, last_attempt, current_session_time, created_at`

func encodeAttempts(attempts []models.Attempt) ([]byte, error) {
	if attempts == nil {
		attempts = []models.Attempt{}
	}
	b, err := json.Marshal(attempts)
	if err != nil {
		return nil, fmt.Errorf("marshal attempts: %w", err)
	}
	return b, nil
}

func decodeAttempts(raw []byte) ([]models.Attempt, error) {
	attempts := []models.Attempt{}
	if len(raw) == 0 {
		return attempts, nil
	}
	if err := json.Unmarshal(raw, &attempts); err != nil {
		return nil, fmt.Errorf("unmarshal attempts: %w", err)
	}
	return attempts, nil
}
