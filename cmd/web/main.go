package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/config"
	"github.com/AdamBeresnev/badminton-bracket/internal/db"
	"github.com/AdamBeresnev/badminton-bracket/internal/lock"
	"github.com/AdamBeresnev/badminton-bracket/internal/middleware"
	"github.com/AdamBeresnev/badminton-bracket/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	log := cfg.Log.NewLogger()

	database, err := db.Open(cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.URL != "" {
		client, err := lock.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Lock.TTL, log)
		log.Info("Advance lock shared through redis")
	}

	app := &application{
		db:             database,
		log:            log,
		locker:         locker,
		lockTimeout:    cfg.Lock.TTL,
		shuffler:       service.NewRandomShuffler(),
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		allowedOrigins: cfg.CORS.AllowedOrigins,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Server starting on http://localhost:%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
