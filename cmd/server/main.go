package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"studytracker-backend/internal/config"
	"studytracker-backend/internal/database"
	"studytracker-backend/internal/events"
	"studytracker-backend/internal/handlers"
	"studytracker-backend/internal/lock"
	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/metrics"
	"studytracker-backend/internal/middleware"
	"studytracker-backend/internal/repository"
	"studytracker-backend/internal/router"
	"studytracker-backend/internal/scheduler"
	"studytracker-backend/internal/services"
	"studytracker-backend/internal/validation"
	"studytracker-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log := logger.New("studytracker", cfg.LogLevel)
	log.WithField("env", cfg.Env).Info("starting study tracker")

	// ──── Step 2: Open Question Store ────
	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("storage initialization failed")
	}
	defer closeStore()

	// ──── Step 3: Optional Redis ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis connection failed")
		}
		defer redisClient.Close()
		log.Info("redis connected")
	}

	// ──── Step 4: Wire Engine ────
	m := metrics.New("studytracker")
	wsHub := websocket.NewHub(redisClient, log)
	defer wsHub.Close()

	opts := []scheduler.Option{scheduler.WithLogger(log)}
	if redisClient != nil {
		// the hub relays the shared channel, so every process broadcasts every event
		opts = append(opts,
			scheduler.WithClaimer(lock.NewRedisClaimer(redisClient, lock.DefaultClaimTTL)),
			scheduler.WithPublisher(events.Multi(m, events.NewRedisPublisher(redisClient))),
		)
	} else {
		opts = append(opts, scheduler.WithPublisher(events.Multi(m, wsHub)))
	}
	engine := scheduler.New(store, opts...)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	err = engine.Load(loadCtx)
	cancelLoad()
	if err != nil {
		log.WithError(err).Fatal("loading questions failed")
	}
	log.WithField("questions", len(engine.Questions())).Info("questions loaded")

	// ──── Step 5: Start Background Work ────
	reconciler := services.NewReconcileScheduler(engine, cfg.ReconcileInterval, log)
	reconciler.Start()
	defer reconciler.Stop()

	sessionLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer sessionLimiter.Stop()

	// ──── Step 6: Start HTTP Server ────
	v := validation.New()
	r := router.New(
		handlers.NewQuestionHandler(engine, v, log),
		handlers.NewSessionHandler(engine, v, log),
		handlers.NewStatsHandler(engine),
		sessionLimiter,
		wsHub,
		m,
		log,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("shutdown did not complete cleanly")
		}
	}()

	log.WithFields(logrus.Fields{
		"api": fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws":  fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	}).Info("study tracker ready")

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server error")
		return
	}
	<-shutdownDone
}

// openStore returns the configured question store and a func that releases it.
func openStore(cfg *config.Config, log logrus.FieldLogger) (scheduler.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(pool, database.PostgresMigrations(), log); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres connected")
		return repository.NewPostgresQuestionRepo(pool), pool.Close, nil

	default:
		path := cfg.SQLitePath
		if path == "" {
			p, err := database.DefaultSQLitePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		} else if err := database.EnsureDir(path); err != nil {
			return nil, nil, err
		}

		db, err := database.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", path).Info("sqlite opened")
		return repository.NewSQLiteQuestionRepo(db), func() { db.Close() }, nil
	}
}
