package models

import "time"

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusAttempted  Status = "attempted"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusAttempted, StatusCompleted:
		return true
	}
	return false
}

type Result string

const (
	ResultSolved    Result = "solved"
	ResultNotSolved Result = "not-solved"
	ResultSkipped   Result = "skipped"
)

func (r Result) Valid() bool {
	switch r {
	case ResultSolved, ResultNotSolved, ResultSkipped:
		return true
	}
	return false
}

type Attempt struct {
	Date      time.Time `json:"date"`
	TimeSpent float64   `json:"time_spent"` // minutes
	Result    Result    `json:"result"`
}

type Question struct {
	ID                  int64      `json:"id"`
	Source              string     `json:"source"`
	Problem             string     `json:"problem"`
	Subject             string     `json:"subject"`
	TotalTime           float64    `json:"total_time"`     // hours
	RemainingTime       float64    `json:"remaining_time"` // minutes
	Status              Status     `json:"status"`
	NeverLookUp         bool       `json:"never_look_up"`
	Attempts            []Attempt  `json:"attempts"`
	TimeSpent           float64    `json:"time_spent"` // minutes
	SolvedIndependently *bool      `json:"solved_independently"`
	Skipped             bool       `json:"skipped"`
	LastAttempt         *time.Time `json:"last_attempt"`
	CurrentSessionTime  int        `json:"current_session_time,omitempty"` // minutes, only while active
	Created             time.Time  `json:"created"`
}

// IsSolvedIndependently reports whether the question was solved without a
// lookup. An unset value counts as not solved.
func (q *Question) IsSolvedIndependently() bool {
	return q.SolvedIndependently != nil && *q.SolvedIndependently
}

// Clone returns a deep copy so callers can mutate it without touching the
// engine's copy.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	if q.Attempts != nil {
		c.Attempts = make([]Attempt, len(q.Attempts))
		copy(c.Attempts, q.Attempts)
	}
	if q.SolvedIndependently != nil {
		v := *q.SolvedIndependently
		c.SolvedIndependently = &v
	}
	if q.LastAttempt != nil {
		t := *q.LastAttempt
		c.LastAttempt = &t
	}
	return &c
}

// QuestionInput is the payload accepted when adding a question.
type QuestionInput struct {
	Source      string  `json:"source" validate:"notblank,max=500"`
	Problem     string  `json:"problem" validate:"notblank"`
	Subject     string  `json:"subject" validate:"notblank,max=200"`
	TotalTime   float64 `json:"total_time" validate:"gt=0,lte=1000"` // hours
	NeverLookUp bool    `json:"never_look_up"`
}

type CompleteRequest struct {
	Result    Result   `json:"result" validate:"required,oneof=solved not-solved skipped"`
	TimeSpent *float64 `json:"time_spent" validate:"omitempty,gte=0"` // defaults to the session time
}

type Stats struct {
	Total               int     `json:"total"`
	Completed           int     `json:"completed"`
	InProgress          int     `json:"in_progress"`
	SolvedIndependently int     `json:"solved_independently"`
	NeverLookUpTotal    int     `json:"never_look_up_total"`
	NeverLookUpSolved   int     `json:"never_look_up_solved"`
	Skipped             int     `json:"skipped"`
	AverageAttempts     float64 `json:"average_attempts"`
}
