package scheduler

import "errors"

var (
	// ErrNoEligibleQuestions is informational: nothing can be picked right now.
	ErrNoEligibleQuestions = errors.New("no eligible questions: all are completed, resting, or out of time")
	ErrNoActiveQuestion    = errors.New("no active question")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrInvalidResult       = errors.New("invalid attempt result")
)
