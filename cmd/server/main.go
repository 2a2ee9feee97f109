package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trogers1052/nof0-api/internal/api"
	"github.com/trogers1052/nof0-api/internal/config"
	"github.com/trogers1052/nof0-api/internal/database"
	"github.com/trogers1052/nof0-api/internal/kafka"
	"github.com/trogers1052/nof0-api/internal/logging"
	"github.com/trogers1052/nof0-api/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("info").Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, serving snapshots from disk")
		}
	}

	ttl := snapshot.NewTTLSet(cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long)
	cache := snapshot.NewCache(rdb, snapshot.NewLoader(cfg.DataPath), ttl, logger)

	// The models listing is the only database-backed route
	var lister api.ModelLister
	if cfg.Database.DSN != "" {
		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			logger.WithError(err).Warn("database unavailable, /api/models disabled")
		} else {
			defer db.Close()
			db.SetPoolLimits(cfg.Database.MaxOpen, cfg.Database.MaxIdle)
			lister = db
		}
	}

	if rdb != nil && len(cfg.Kafka.Brokers) > 0 {
		// Start closes the reader once ctx is cancelled
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, cache, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("import event consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(snapshot.NewService(cache), lister, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewServer(handler, cfg.Cors),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	logger.Info("Server stopped")
}
