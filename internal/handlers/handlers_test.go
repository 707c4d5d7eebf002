package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studytracker-backend/internal/handlers"
	"studytracker-backend/internal/metrics"
	"studytracker-backend/internal/models"
	"studytracker-backend/internal/repository"
	"studytracker-backend/internal/router"
	"studytracker-backend/internal/scheduler"
	"studytracker-backend/internal/validation"
)

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]*models.Question
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]*models.Question)}
}

var errStoreDown = errors.New("store down")

func (s *memStore) List(ctx context.Context) ([]*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Question, 0, len(s.rows))
	for id := int64(1); id <= s.nextID; id++ {
		if q, ok := s.rows[id]; ok {
			out = append(out, q.Clone())
		}
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id int64) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	q, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return q.Clone(), nil
}

func (s *memStore) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	s.nextID++
	c := q.Clone()
	c.ID = s.nextID
	s.rows[c.ID] = c
	return c.Clone(), nil
}

func (s *memStore) Update(ctx context.Context, id int64, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	s.rows[id] = q.Clone()
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[int64]*models.Question)
	return nil
}

type testServer struct {
	handler http.Handler
	engine  *scheduler.Engine
	store   *memStore
	now     *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ts := &testServer{store: newMemStore(), now: &now}
	ts.engine = scheduler.New(ts.store,
		scheduler.WithClock(func() time.Time { return *ts.now }),
		scheduler.WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	require.NoError(t, ts.engine.Load(context.Background()))

	v := validation.New()
	ts.handler = router.New(
		handlers.NewQuestionHandler(ts.engine, v, log),
		handlers.NewSessionHandler(ts.engine, v, log),
		handlers.NewStatsHandler(ts.engine),
		nil,
		nil,
		metrics.New("test"),
		log,
		"http://localhost:5173",
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func validInput() map[string]interface{} {
	return map[string]interface{}{
		"source":        "Rudin",
		"problem":       "Prove that there is no rational number whose square is 12.",
		"subject":       "Real Analysis",
		"total_time":    1,
		"never_look_up": false,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCreateQuestion(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/v1/questions", validInput())
	require.Equal(t, http.StatusCreated, rr.Code)

	q := decode[models.Question](t, rr)
	assert.Equal(t, int64(1), q.ID)
	assert.Equal(t, models.StatusNew, q.Status)
	assert.Equal(t, 60.0, q.RemainingTime)
	assert.Empty(t, q.Attempts)
}

func TestCreateQuestion_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing source", map[string]interface{}{"problem": "p", "subject": "s", "total_time": 1}, "source"},
		{"zero total time", map[string]interface{}{"source": "a", "problem": "p", "subject": "s", "total_time": 0}, "total_time"},
		{"negative total time", map[string]interface{}{"source": "a", "problem": "p", "subject": "s", "total_time": -2}, "total_time"},
		{"blank subject", map[string]interface{}{"source": "a", "problem": "p", "subject": "  ", "total_time": 1}, "subject"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			rr := ts.do(t, http.MethodPost, "/api/v1/questions", tc.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decode[models.ErrorResponse](t, rr)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Contains(t, resp.Error.Fields, tc.field)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Empty(t, ts.engine.Questions())
		})
	}
}

func TestCreateQuestion_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateQuestion_StoreFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.failAll = true

	rr := ts.do(t, http.MethodPost, "/api/v1/questions", validInput())

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, ts.engine.Questions())
}

func TestListAndGetQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())

	rr := ts.do(t, http.MethodGet, "/api/v1/questions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Questions []models.Question `json:"questions"`
		Total     int               `json:"total"`
	}](t, rr)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, int64(2), list.Questions[1].ID)

	rr = ts.do(t, http.MethodGet, "/api/v1/questions/2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), decode[models.Question](t, rr).ID)

	rr = ts.do(t, http.MethodGet, "/api/v1/questions/99", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/v1/questions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())

	rr := ts.do(t, http.MethodDelete, "/api/v1/questions/1", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodDelete, "/api/v1/questions/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())

	rr := ts.do(t, http.MethodGet, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"question":null}`, rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/v1/session/next", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	next := decode[struct {
		Question       models.Question `json:"question"`
		SessionMinutes int             `json:"session_minutes"`
	}](t, rr)
	assert.Equal(t, 15, next.SessionMinutes)
	assert.Equal(t, models.StatusInProgress, next.Question.Status)

	rr = ts.do(t, http.MethodGet, "/api/v1/session", nil)
	current := decode[struct {
		Question *models.Question `json:"question"`
	}](t, rr)
	require.NotNil(t, current.Question)
	assert.Equal(t, int64(1), current.Question.ID)

	rr = ts.do(t, http.MethodPost, "/api/v1/session/complete", map[string]interface{}{
		"result":     "not-solved",
		"time_spent": 10,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	done := decode[models.Question](t, rr)
	assert.Equal(t, models.StatusAttempted, done.Status)
	assert.Equal(t, 50.0, done.RemainingTime)
	require.Len(t, done.Attempts, 1)
	assert.Equal(t, 10.0, done.Attempts[0].TimeSpent)

	// still resting
	rr = ts.do(t, http.MethodPost, "/api/v1/session/next", nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	resp := decode[models.ErrorResponse](t, rr)
	assert.Equal(t, "NO_ELIGIBLE_QUESTIONS", resp.Error.Code)
}

func TestCompleteSession_DefaultsToSessionTime(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())
	ts.do(t, http.MethodPost, "/api/v1/session/next", nil)

	rr := ts.do(t, http.MethodPost, "/api/v1/session/complete", map[string]interface{}{"result": "skipped"})
	require.Equal(t, http.StatusOK, rr.Code)

	q := decode[models.Question](t, rr)
	assert.Equal(t, 15.0, q.TimeSpent)
	assert.True(t, q.Skipped)
}

func TestCompleteSession_NoActiveQuestion(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/v1/session/complete", map[string]interface{}{"result": "solved"})
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "NO_ACTIVE_QUESTION", decode[models.ErrorResponse](t, rr).Error.Code)
}

func TestCompleteSession_InvalidResult(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/v1/session/complete", map[string]interface{}{"result": "gave-up"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[models.ErrorResponse](t, rr).Error.Fields, "result")
}

func TestReplaceQuestion(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/v1/questions", validInput())

	q, err := ts.engine.Question(1)
	require.NoError(t, err)
	q.Subject = "Analysis I"
	q.NeverLookUp = true

	rr := ts.do(t, http.MethodPut, "/api/v1/questions/1", q)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[models.Question](t, rr)
	assert.Equal(t, "Analysis I", got.Subject)
	assert.True(t, got.NeverLookUp)

	q.Status = "bogus"
	rr = ts.do(t, http.MethodPut, "/api/v1/questions/1", q)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	q.Status = models.StatusNew
	q.ID = 7
	rr = ts.do(t, http.MethodPut, "/api/v1/questions/1", q)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/v1/questions/7", q)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.Stats{}, decode[models.Stats](t, rr))

	body := validInput()
	body["never_look_up"] = true
	ts.do(t, http.MethodPost, "/api/v1/questions", body)
	ts.do(t, http.MethodPost, "/api/v1/session/next", nil)
	ts.do(t, http.MethodPost, "/api/v1/session/complete", map[string]interface{}{"result": "solved", "time_spent": 5})

	rr = ts.do(t, http.MethodGet, "/api/v1/stats", nil)
	stats := decode[models.Stats](t, rr)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.NeverLookUpTotal)
	assert.Equal(t, 1, stats.NeverLookUpSolved)
	assert.Equal(t, 1.0, stats.AverageAttempts)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/v1/stats", nil)

	rr := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/stats",status="200"} 1`)
}
