package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/handlers"
	"studytracker-backend/internal/metrics"
	"studytracker-backend/internal/middleware"
	"studytracker-backend/internal/websocket"
)

func New(
	questionHandler *handlers.QuestionHandler,
	sessionHandler *handlers.SessionHandler,
	statsHandler *handlers.StatsHandler,
	sessionLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	m *metrics.Metrics,
	log logrus.FieldLogger,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestLogger(&chimiddleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	if m != nil {
		r.Use(m.Middleware)
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// ──── Question Routes ────
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.List)
			r.Post("/", questionHandler.Create)
			r.Get("/{id}", questionHandler.Get)
			r.Put("/{id}", questionHandler.Replace)
			r.Delete("/{id}", questionHandler.Delete)
		})

		// ──── Session Routes ────
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Current)
			r.Group(func(r chi.Router) {
				if sessionLimiter != nil {
					r.Use(sessionLimiter.Middleware)
				}
				r.Post("/next", sessionHandler.Next)
				r.Post("/complete", sessionHandler.Complete)
			})
		})

		r.Get("/stats", statsHandler.Get)

		// ──── WebSocket ────
		if wsHub != nil {
			r.Get("/ws", wsHub.HandleWebSocket)
		}
	})

	return r
}
