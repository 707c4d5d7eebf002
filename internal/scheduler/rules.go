package scheduler

import (
	"math"
	"time"

	"studytracker-backend/internal/models"
)

// SessionDurations is the escalation ladder in minutes. The n-th attempt
// gets SessionDurations[min(n, len-1)].
var SessionDurations = []int{15, 30, 60}

// RestPeriod is the minimum gap between two attempts on a regular question.
const RestPeriod = 3 * time.Hour

// NextSessionDuration returns the session length in minutes for a question
// that already has attemptCount attempts.
func NextSessionDuration(attemptCount int) int {
	if attemptCount < 0 {
		attemptCount = 0
	}
	return SessionDurations[min(attemptCount, len(SessionDurations)-1)]
}

// Expired reports whether a regular question has run out of time but has not
// been retired yet. Never-look-up questions never expire.
func Expired(q *models.Question) bool {
	return q.Status != models.StatusCompleted && !q.NeverLookUp && q.RemainingTime <= 0
}

// Eligible reports whether q may be picked at time now.
func Eligible(q *models.Question, now time.Time) bool {
	if q.Status == models.StatusCompleted {
		return false
	}
	if q.NeverLookUp {
		return !q.IsSolvedIndependently()
	}
	if q.RemainingTime <= 0 {
		return false
	}
	if q.LastAttempt != nil && now.Sub(*q.LastAttempt) < RestPeriod {
		return false
	}
	return true
}

// ApplyOutcome records an attempt on q and moves it to its next status.
func ApplyOutcome(q *models.Question, result models.Result, timeSpent float64, at time.Time) {
	q.Attempts = append(q.Attempts, models.Attempt{
		Date:      at,
		TimeSpent: timeSpent,
		Result:    result,
	})
	q.TimeSpent += timeSpent
	q.RemainingTime -= timeSpent
	q.CurrentSessionTime = 0

	switch result {
	case models.ResultSolved:
		q.SolvedIndependently = boolPtr(true)
		q.Status = models.StatusCompleted

	case models.ResultNotSolved:
		q.SolvedIndependently = boolPtr(false)
		switch {
		case q.NeverLookUp:
			q.Status = models.StatusAttempted
		case q.RemainingTime <= 0:
			q.Status = models.StatusCompleted
			q.Skipped = true
		default:
			q.Status = models.StatusAttempted
		}

	case models.ResultSkipped:
		q.Skipped = true
		if !q.NeverLookUp && q.RemainingTime <= 0 {
			q.Status = models.StatusCompleted
		} else {
			q.Status = models.StatusAttempted
		}
	}
}

// ComputeStats aggregates counts over questions without mutating them.
func ComputeStats(questions []*models.Question) models.Stats {
	var s models.Stats
	totalAttempts := 0
	for _, q := range questions {
		s.Total++
		totalAttempts += len(q.Attempts)
		switch q.Status {
		case models.StatusCompleted:
			s.Completed++
		case models.StatusInProgress:
			s.InProgress++
		}
		if q.IsSolvedIndependently() {
			s.SolvedIndependently++
		}
		if q.NeverLookUp {
			s.NeverLookUpTotal++
			if q.IsSolvedIndependently() {
				s.NeverLookUpSolved++
			}
		}
		if q.Skipped {
			s.Skipped++
		}
	}
	if s.Total > 0 {
		avg := float64(totalAttempts) / float64(s.Total)
		s.AverageAttempts = math.Round(avg*10) / 10
	}
	return s
}

func boolPtr(v bool) *bool { return &v }
