package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
)

// Engine owns the question collection and the active question. Every
// mutation is applied to a copy, persisted, and only then committed to
// memory, so a failed write leaves the engine unchanged.
type Engine struct {
	mu        sync.Mutex
	store     Store
	claimer   Claimer
	publisher Publisher
	log       logrus.FieldLogger
	now       func() time.Time
	rng       *rand.Rand

	questions []*models.Question
	current   int64 // id of the active question, 0 when none
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   discardLogger(),
		now:   time.Now,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the in-memory collection with the stored one. An in-progress
// question that still carries a session time becomes the active question
// again; if several do, the most recently started wins.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	questions, err := e.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	e.questions = questions
	e.current = 0

	var latest *models.Question
	for _, q := range questions {
		if q.Status != models.StatusInProgress || q.CurrentSessionTime <= 0 || q.LastAttempt == nil {
			continue
		}
		if latest == nil || q.LastAttempt.After(*latest.LastAttempt) {
			latest = q
		}
	}
	if latest != nil {
		e.current = latest.ID
		e.log.WithField("question_id", latest.ID).Info("restored active question")
	}

	e.log.WithField("count", len(questions)).Debug("questions loaded")
	return nil
}

// AddQuestion creates a new question with a fresh id and full time budget.
func (e *Engine) AddQuestion(ctx context.Context, in models.QuestionInput) (*models.Question, error) {
	if in.TotalTime <= 0 || math.IsNaN(in.TotalTime) || math.IsInf(in.TotalTime, 0) {
		return nil, fmt.Errorf("%w: total time must be a positive number of hours", ErrInvalidQuestion)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	q := &models.Question{
		Source:        strings.TrimSpace(in.Source),
		Problem:       in.Problem,
		Subject:       strings.TrimSpace(in.Subject),
		TotalTime:     in.TotalTime,
		RemainingTime: in.TotalTime * 60,
		Status:        models.StatusNew,
		NeverLookUp:   in.NeverLookUp,
		Attempts:      []models.Attempt{},
		Created:       e.now(),
	}

	stored, err := e.store.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	e.questions = append(e.questions, stored)
	e.log.WithFields(logrus.Fields{
		"question_id":   stored.ID,
		"never_look_up": stored.NeverLookUp,
	}).Info("question added")
	e.publish(ctx, models.EventQuestionAdded, stored)

	return stored.Clone(), nil
}

// ReconcileExpired retires every regular question whose remaining time is
// used up. Each change is persisted before it is committed.
func (e *Engine) ReconcileExpired(ctx context.Context) ([]*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconcileExpiredLocked(ctx)
}

func (e *Engine) reconcileExpiredLocked(ctx context.Context) ([]*models.Question, error) {
	var expired []*models.Question
	for i, q := range e.questions {
		if !Expired(q) {
			continue
		}

		next := q.Clone()
		next.Status = models.StatusCompleted
		next.Skipped = true
		next.CurrentSessionTime = 0

		if err := e.store.Update(ctx, next.ID, next); err != nil {
			return expired, fmt.Errorf("retire expired question %d: %w", next.ID, err)
		}

		e.questions[i] = next
		if e.current == next.ID {
			e.current = 0
			e.release(ctx, next.ID)
		}
		expired = append(expired, next.Clone())

		e.log.WithField("question_id", next.ID).Info("question retired: time budget exhausted")
		e.publish(ctx, models.EventQuestionExpired, next)
	}
	return expired, nil
}

// SelectRandomQuestion retires expired questions, then picks one eligible
// question uniformly at random and makes it the active question.
func (e *Engine) SelectRandomQuestion(ctx context.Context) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.reconcileExpiredLocked(ctx); err != nil {
		return nil, err
	}

	now := e.now()
	var candidates []int64
	for _, q := range e.questions {
		if Eligible(q, now) {
			candidates = append(candidates, q.ID)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoEligibleQuestions
	}

	for _, k := range e.rng.Perm(len(candidates)) {
		id := candidates[k]
		claimed := false

		if e.claimer != nil && id != e.current {
			ok, err := e.claimer.Claim(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("claim question %d: %w", id, err)
			}
			if !ok {
				e.log.WithField("question_id", id).Debug("question claimed elsewhere, skipping")
				continue
			}
			claimed = true

			// Another process may have worked on it since we loaded it.
			fresh, err := e.syncLocked(ctx, id)
			if errors.Is(err, ErrQuestionNotFound) {
				e.release(ctx, id)
				continue
			}
			if err != nil {
				e.release(ctx, id)
				return nil, err
			}
			if !Eligible(fresh, now) {
				e.release(ctx, id)
				continue
			}
		}

		q, err := e.startSessionLocked(ctx, id, now)
		if err != nil {
			if claimed {
				e.release(ctx, id)
			}
			return nil, err
		}
		return q, nil
	}

	return nil, ErrNoEligibleQuestions
}

// startSessionLocked makes question id the active one. The new session is
// persisted before the previous one is ended; if ending it fails the new
// session is written back, so memory only changes once both writes succeed.
func (e *Engine) startSessionLocked(ctx context.Context, id int64, now time.Time) (*models.Question, error) {
	i := e.indexOf(id)
	orig := e.questions[i]

	next := orig.Clone()
	next.Status = models.StatusInProgress
	next.CurrentSessionTime = NextSessionDuration(len(next.Attempts))
	startedAt := now
	next.LastAttempt = &startedAt

	if err := e.store.Update(ctx, id, next); err != nil {
		return nil, fmt.Errorf("start session for question %d: %w", id, err)
	}

	var prev *models.Question
	if e.current != 0 && e.current != id {
		if j := e.indexOf(e.current); j >= 0 {
			prev = e.questions[j].Clone()
			prev.CurrentSessionTime = 0
			if err := e.store.Update(ctx, prev.ID, prev); err != nil {
				if undoErr := e.store.Update(ctx, id, orig); undoErr != nil {
					e.log.WithError(undoErr).WithField("question_id", id).Error("failed to undo session start")
				}
				return nil, fmt.Errorf("end session for question %d: %w", prev.ID, err)
			}
		}
	}

	e.questions[i] = next
	if prev != nil {
		e.questions[e.indexOf(prev.ID)] = prev
		e.release(ctx, prev.ID)
		e.log.WithField("question_id", prev.ID).Info("active question replaced")
	}
	e.current = id

	e.log.WithFields(logrus.Fields{
		"question_id":     id,
		"session_minutes": next.CurrentSessionTime,
		"attempts":        len(next.Attempts),
	}).Info("question selected")
	e.publish(ctx, models.EventQuestionSelected, next)

	return next.Clone(), nil
}

// syncLocked reloads question id from the store when a claimer is set, since
// other processes write to the same store. A question that is gone from the
// store is dropped from memory and reported as ErrQuestionNotFound.
func (e *Engine) syncLocked(ctx context.Context, id int64) (*models.Question, error) {
	i := e.indexOf(id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	if e.claimer == nil {
		return e.questions[i], nil
	}

	fresh, err := e.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		e.questions = append(e.questions[:i:i], e.questions[i+1:]...)
		e.log.WithField("question_id", id).Warn("question removed by another process")
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reload question %d: %w", id, err)
	}

	e.questions[i] = fresh
	return fresh, nil
}

// CompleteQuestion records the outcome of the active session.
func (e *Engine) CompleteQuestion(ctx context.Context, result models.Result, timeSpent float64) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completeLocked(ctx, result, func(*models.Question) float64 { return timeSpent })
}

// CompleteCurrentSession records the outcome of the active session using the
// full session time as the time spent.
func (e *Engine) CompleteCurrentSession(ctx context.Context, result models.Result) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completeLocked(ctx, result, func(q *models.Question) float64 {
		return float64(q.CurrentSessionTime)
	})
}

func (e *Engine) completeLocked(ctx context.Context, result models.Result, spent func(*models.Question) float64) (*models.Question, error) {
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}
	if e.current == 0 {
		return nil, ErrNoActiveQuestion
	}
	id := e.current
	if _, err := e.syncLocked(ctx, id); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			e.current = 0
			e.release(ctx, id)
			return nil, ErrNoActiveQuestion
		}
		return nil, err
	}
	i := e.indexOf(id)

	timeSpent := spent(e.questions[i])
	if timeSpent < 0 || math.IsNaN(timeSpent) || math.IsInf(timeSpent, 0) {
		return nil, fmt.Errorf("%w: time spent must be a non-negative number of minutes", ErrInvalidQuestion)
	}

	next := e.questions[i].Clone()
	ApplyOutcome(next, result, timeSpent, e.now())

	if err := e.store.Update(ctx, next.ID, next); err != nil {
		return nil, fmt.Errorf("record attempt on question %d: %w", next.ID, err)
	}

	e.questions[i] = next
	e.current = 0
	e.release(ctx, next.ID)

	e.log.WithFields(logrus.Fields{
		"question_id":    next.ID,
		"result":         result,
		"time_spent":     timeSpent,
		"remaining_time": next.RemainingTime,
		"status":         next.Status,
	}).Info("attempt recorded")
	e.publish(ctx, models.EventQuestionCompleted, next)

	return next.Clone(), nil
}

// DeleteQuestion removes a question. Deleting the active question clears it.
func (e *Engine) DeleteQuestion(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return ErrQuestionNotFound
	}

	if err := e.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("delete question %d: %w", id, err)
		}
		// Already gone from the store; drop the stale copy too.
		e.log.WithField("question_id", id).Warn("question missing from store during delete")
	}

	e.questions = append(e.questions[:i:i], e.questions[i+1:]...)
	if e.current == id {
		e.current = 0
		e.release(ctx, id)
	}

	e.log.WithField("question_id", id).Info("question deleted")
	e.publishEvent(ctx, models.Event{Type: models.EventQuestionDeleted, QuestionID: id, At: e.now()})
	return nil
}

// ReplaceQuestion overwrites a stored question with a full record. The
// history may only grow and, once a question has left "new", its remaining
// time may not go up.
func (e *Engine) ReplaceQuestion(ctx context.Context, id int64, q *models.Question) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, err := e.syncLocked(ctx, id)
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) && e.current == id {
			e.current = 0
			e.release(ctx, id)
		}
		return nil, err
	}
	i := e.indexOf(id)

	next := q.Clone()
	next.ID = id
	if next.Created.IsZero() {
		next.Created = old.Created
	}
	if next.Attempts == nil {
		next.Attempts = []models.Attempt{}
	}
	if err := validateReplacement(old, next); err != nil {
		return nil, err
	}

	stillActive := e.current == id && next.Status == models.StatusInProgress
	switch {
	case !stillActive:
		next.CurrentSessionTime = 0
	case next.CurrentSessionTime <= 0:
		next.CurrentSessionTime = old.CurrentSessionTime
	}

	if err := e.store.Update(ctx, id, next); err != nil {
		return nil, fmt.Errorf("replace question %d: %w", id, err)
	}

	e.questions[i] = next
	if e.current == id && !stillActive {
		e.current = 0
		e.release(ctx, id)
	}

	e.log.WithField("question_id", id).Info("question replaced")
	e.publish(ctx, models.EventQuestionReplaced, next)
	return next.Clone(), nil
}

func validateReplacement(old, next *models.Question) error {
	switch {
	case !next.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidQuestion, next.Status)
	case next.TotalTime <= 0:
		return fmt.Errorf("%w: total time must be positive", ErrInvalidQuestion)
	case len(next.Attempts) < len(old.Attempts):
		return fmt.Errorf("%w: attempt history cannot shrink", ErrInvalidQuestion)
	case old.Status != models.StatusNew && next.RemainingTime > old.RemainingTime:
		return fmt.Errorf("%w: remaining time cannot increase", ErrInvalidQuestion)
	case old.Status == models.StatusCompleted && next.Status != models.StatusCompleted:
		return fmt.Errorf("%w: completed questions cannot be reopened", ErrInvalidQuestion)
	}
	for k, a := range old.Attempts {
		b := next.Attempts[k]
		if !a.Date.Equal(b.Date) || a.TimeSpent != b.TimeSpent || a.Result != b.Result {
			return fmt.Errorf("%w: existing attempts cannot be rewritten", ErrInvalidQuestion)
		}
	}
	return nil
}

// Reset wipes every stored question. Only an explicit reset command calls it.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset questions: %w", err)
	}
	if e.current != 0 {
		e.release(ctx, e.current)
	}
	e.questions = nil
	e.current = 0

	e.log.Warn("all questions removed")
	e.publishEvent(ctx, models.Event{Type: models.EventQuestionsReset, At: e.now()})
	return nil
}

// Current returns a copy of the active question, or nil.
func (e *Engine) Current() *models.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(e.current); i >= 0 && e.current != 0 {
		return e.questions[i].Clone()
	}
	return nil
}

// Questions returns copies of all questions in insertion order.
func (e *Engine) Questions() []*models.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*models.Question, len(e.questions))
	for i, q := range e.questions {
		out[i] = q.Clone()
	}
	return out
}

func (e *Engine) Question(id int64) (*models.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	return e.questions[i].Clone(), nil
}

func (e *Engine) Stats() models.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeStats(e.questions)
}

func (e *Engine) indexOf(id int64) int {
	for i, q := range e.questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) release(ctx context.Context, id int64) {
	if e.claimer == nil {
		return
	}
	if err := e.claimer.Release(ctx, id); err != nil {
		e.log.WithError(err).WithField("question_id", id).Warn("failed to release question claim")
	}
}

func (e *Engine) publish(ctx context.Context, typ models.EventType, q *models.Question) {
	e.publishEvent(ctx, models.Event{Type: typ, QuestionID: q.ID, Question: q.Clone(), At: e.now()})
}

func (e *Engine) publishEvent(ctx context.Context, evt models.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, evt); err != nil {
		e.log.WithError(err).WithField("event", evt.Type).Warn("failed to publish event")
	}
}
