package scheduler

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/models"
)

// Store is the persistence collaborator. A completed write must be visible to
// subsequent reads.
type Store interface {
	List(ctx context.Context) ([]*models.Question, error)
	Get(ctx context.Context, id int64) (*models.Question, error)
	Create(ctx context.Context, q *models.Question) (*models.Question, error)
	Update(ctx context.Context, id int64, q *models.Question) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

// Claimer guards a question against being worked on by two processes that
// share one store.
type Claimer interface {
	Claim(ctx context.Context, questionID int64) (bool, error)
	Release(ctx context.Context, questionID int64) error
}

// Publisher receives events after they have been persisted.
type Publisher interface {
	Publish(ctx context.Context, evt models.Event) error
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithClaimer(c Claimer) Option {
	return func(e *Engine) { e.claimer = c }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
