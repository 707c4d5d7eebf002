package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studytracker-backend/internal/models"
)

func TestNextSessionDuration(t *testing.T) {
	tests := []struct {
		attempts int
		want     int
	}{
		{-1, 15},
		{0, 15},
		{1, 30},
		{2, 60},
		{5, 60},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NextSessionDuration(tc.attempts), "attempts=%d", tc.attempts)
	}
}

func TestEligible(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}
	yes, no := true, false

	tests := []struct {
		name string
		q    models.Question
		want bool
	}{
		{"new question", models.Question{Status: models.StatusNew, RemainingTime: 60}, true},
		{"completed", models.Question{Status: models.StatusCompleted, RemainingTime: 60}, false},
		{"out of time", models.Question{Status: models.StatusAttempted, RemainingTime: 0}, false},
		{"resting two hours in", models.Question{Status: models.StatusAttempted, RemainingTime: 30, LastAttempt: at(2 * time.Hour)}, false},
		{"rest period just over", models.Question{Status: models.StatusAttempted, RemainingTime: 30, LastAttempt: at(3*time.Hour + time.Second)}, true},
		{"rest period exactly over", models.Question{Status: models.StatusAttempted, RemainingTime: 30, LastAttempt: at(3 * time.Hour)}, true},
		{"never look up ignores rest", models.Question{Status: models.StatusAttempted, NeverLookUp: true, RemainingTime: 30, LastAttempt: at(time.Minute)}, true},
		{"never look up ignores time", models.Question{Status: models.StatusAttempted, NeverLookUp: true, RemainingTime: -40, SolvedIndependently: &no}, true},
		{"never look up solved", models.Question{Status: models.StatusAttempted, NeverLookUp: true, RemainingTime: 30, SolvedIndependently: &yes}, false},
		{"never look up completed", models.Question{Status: models.StatusCompleted, NeverLookUp: true}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Eligible(&tc.q, now))
		})
	}
}

func TestExpired(t *testing.T) {
	assert.True(t, Expired(&models.Question{Status: models.StatusAttempted, RemainingTime: 0}))
	assert.True(t, Expired(&models.Question{Status: models.StatusNew, RemainingTime: -5}))
	assert.False(t, Expired(&models.Question{Status: models.StatusCompleted, RemainingTime: 0}))
	assert.False(t, Expired(&models.Question{Status: models.StatusAttempted, NeverLookUp: true, RemainingTime: 0}))
	assert.False(t, Expired(&models.Question{Status: models.StatusAttempted, RemainingTime: 1}))
}

func TestApplyOutcome(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		q           models.Question
		result      models.Result
		spent       float64
		status      models.Status
		skipped     bool
		independent *bool
		remaining   float64
	}{
		{"solved with time left", models.Question{RemainingTime: 60}, models.ResultSolved, 15, models.StatusCompleted, false, boolPtr(true), 45},
		{"solved after budget", models.Question{RemainingTime: 10}, models.ResultSolved, 30, models.StatusCompleted, false, boolPtr(true), -20},
		{"not solved with time left", models.Question{RemainingTime: 60}, models.ResultNotSolved, 15, models.StatusAttempted, false, boolPtr(false), 45},
		{"not solved uses up budget", models.Question{RemainingTime: 15}, models.ResultNotSolved, 15, models.StatusCompleted, true, boolPtr(false), 0},
		{"not solved never look up", models.Question{RemainingTime: 15, NeverLookUp: true}, models.ResultNotSolved, 30, models.StatusAttempted, false, boolPtr(false), -15},
		{"skipped with time left", models.Question{RemainingTime: 60}, models.ResultSkipped, 15, models.StatusAttempted, true, nil, 45},
		{"skipped uses up budget", models.Question{RemainingTime: 15}, models.ResultSkipped, 15, models.StatusCompleted, true, nil, 0},
		{"skipped never look up", models.Question{RemainingTime: 5, NeverLookUp: true}, models.ResultSkipped, 15, models.StatusAttempted, true, nil, -10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.q
			q.Status = models.StatusInProgress
			q.CurrentSessionTime = 15

			ApplyOutcome(&q, tc.result, tc.spent, at)

			assert.Equal(t, tc.status, q.Status)
			assert.Equal(t, tc.skipped, q.Skipped)
			assert.Equal(t, tc.independent, q.SolvedIndependently)
			assert.Equal(t, tc.remaining, q.RemainingTime)
			assert.Equal(t, tc.spent, q.TimeSpent)
			assert.Zero(t, q.CurrentSessionTime)
			assert.Equal(t, []models.Attempt{{Date: at, TimeSpent: tc.spent, Result: tc.result}}, q.Attempts)
		})
	}
}

func TestComputeStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, models.Stats{}, ComputeStats(nil))
	})

	t.Run("mixed", func(t *testing.T) {
		questions := []*models.Question{
			{Status: models.StatusCompleted, SolvedIndependently: boolPtr(true), Attempts: make([]models.Attempt, 1)},
			{Status: models.StatusInProgress, NeverLookUp: true, Attempts: make([]models.Attempt, 0)},
			{Status: models.StatusCompleted, NeverLookUp: true, SolvedIndependently: boolPtr(true), Attempts: make([]models.Attempt, 2)},
			{Status: models.StatusCompleted, Skipped: true, SolvedIndependently: boolPtr(false), Attempts: make([]models.Attempt, 4)},
			{Status: models.StatusNew},
			{Status: models.StatusAttempted, Skipped: true, Attempts: make([]models.Attempt, 1)},
		}

		assert.Equal(t, models.Stats{
			Total:               6,
			Completed:           3,
			InProgress:          1,
			SolvedIndependently: 2,
			NeverLookUpTotal:    2,
			NeverLookUpSolved:   1,
			Skipped:             2,
			AverageAttempts:     1.3,
		}, ComputeStats(questions))
	})
}
