package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/models"
)

const defaultReconcileInterval = 15 * time.Minute

type expiredReconciler interface {
	ReconcileExpired(ctx context.Context) ([]*models.Question, error)
}

// ReconcileScheduler retires questions whose time budget ran out, so they
// show up as completed even when nobody asks for the next question.
type ReconcileScheduler struct {
	engine   expiredReconciler
	interval time.Duration
	log      logrus.FieldLogger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewReconcileScheduler(engine expiredReconciler, interval time.Duration, log logrus.FieldLogger) *ReconcileScheduler {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}
	return &ReconcileScheduler{
		engine:   engine,
		interval: interval,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

func (s *ReconcileScheduler) Start() {
	if s.engine == nil {
		return
	}

	s.wg.Add(1)
	go s.loop()

	s.log.WithField("interval", s.interval.String()).Info("reconcile scheduler started")
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *ReconcileScheduler) Stop() {
	s.once.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *ReconcileScheduler) loop() {
	defer s.wg.Done()

	// Run on startup as well as by interval.
	s.runOnce(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runOnce(context.Background())
		}
	}
}

func (s *ReconcileScheduler) runOnce(ctx context.Context) {
	expired, err := s.engine.ReconcileExpired(ctx)
	if err != nil {
		s.log.WithError(err).Warn("reconcile pass failed")
		return
	}
	if len(expired) > 0 {
		s.log.WithField("retired", len(expired)).Info("retired expired questions")
	}
}
