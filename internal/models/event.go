package models

import "time"

type EventType string

const (
	EventQuestionAdded     EventType = "question.added"
	EventQuestionSelected  EventType = "question.selected"
	EventQuestionCompleted EventType = "question.completed"
	EventQuestionExpired   EventType = "question.expired"
	EventQuestionReplaced  EventType = "question.replaced"
	EventQuestionDeleted   EventType = "question.deleted"
	EventQuestionsReset    EventType = "questions.reset"
)

// Event is pushed to listeners after a change has been persisted.
type Event struct {
	Type       EventType `json:"type"`
	QuestionID int64     `json:"question_id,omitempty"`
	Question   *Question `json:"question,omitempty"`
	At         time.Time `json:"at"`
}
