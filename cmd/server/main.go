// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/api"
	"github.com/andresuchdata/butcherline/backend-go/internal/cache"
	"github.com/andresuchdata/butcherline/backend-go/internal/config"
	"github.com/andresuchdata/butcherline/backend-go/internal/lock"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/notify"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository/memory"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/andresuchdata/butcherline/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Server.Mode)
	if cfg.Server.LogLevel != "" {
		logger.SetLevel(cfg.Server.LogLevel)
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	var rdb *redis.Client
	if cfg.Cache.Enabled || cfg.Lock.Driver == config.LockDriverRedis || cfg.Notify.Driver == config.NotifyDriverRedis {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		rdb = client
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Lock.Driver == config.LockDriverRedis {
		locker = lock.NewRedisLocker(rdb, time.Duration(cfg.Lock.TTLSeconds)*time.Second)
	}

	var sink notify.Sink = notify.LogSink{}
	if cfg.Notify.Driver == config.NotifyDriverRedis {
		sink = notify.NewRedisSink(rdb, cfg.Notify.Channel)
	}
	publisher := notify.NewAsyncPublisher(cfg.Notify.Buffer, m, sink)

	services := service.New(service.Dependencies{
		Store:    store,
		Cache:    cache.NewCatalogCache(cfg.Cache, rdb),
		Locker:   locker,
		Notifier: publisher,
		Metrics:  m,
	})

	router := api.NewRouter(services, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        m,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Database.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Drain queued notifications after the last request has finished.
	if err := publisher.Close(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("Notification queue not fully drained")
	}

	logger.Log.Info().Msg("Server exiting")
}

func openStore(cfg *config.Config) (repository.Store, func()) {
	if cfg.Database.Driver == config.StoreDriverMemory {
		logger.Log.Warn().Msg("Using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}
	}
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	return db, func() { db.Close() }
}
