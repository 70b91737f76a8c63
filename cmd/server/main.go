package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"codeclash/internal/config"
	"codeclash/internal/handlers"
	"codeclash/internal/judge"
	"codeclash/internal/observability"
	"codeclash/internal/problems"
	"codeclash/internal/room"
	"codeclash/internal/store"
)

func main() {
	// Load server configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := observability.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Problem library: built-in set unless a YAML library is configured.
	library := problems.Default()
	if cfg.Server.ProblemLibrary != "" {
		library, err = problems.Load(cfg.Server.ProblemLibrary)
		if err != nil {
			logger.Fatal("failed to load problem library",
				zap.String("path", cfg.Server.ProblemLibrary), zap.Error(err))
		}
	}
	logger.Info("problem library loaded", zap.Int("problems", library.Size()))

	// Snapshot store: redis when configured, else in-process.
	var snapshots store.SnapshotStore
	if cfg.Server.RedisAddr != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB)
		if err != nil {
			logger.Fatal("redis unavailable", zap.Error(err))
		}
		defer redisStore.Close()
		snapshots = redisStore
		logger.Info("snapshot store: redis", zap.String("addr", cfg.Server.RedisAddr))
	} else {
		snapshots = store.NewMemoryStore()
		logger.Warn("snapshot store: in-memory, rooms will not survive a restart")
	}

	// Results store: mysql when configured, else in-process.
	var results store.ResultsStore
	if cfg.Server.ResultsDSN != "" {
		mysqlResults, err := store.NewMySQLResults(ctx, cfg.Server.ResultsDSN)
		if err != nil {
			logger.Fatal("results db unavailable", zap.Error(err))
		}
		defer mysqlResults.Close()
		results = mysqlResults
		logger.Info("results store: mysql")
	} else {
		results = &store.MemoryResults{}
		logger.Warn("results store: in-memory, standings will not survive a restart")
	}

	if cfg.Server.JudgeURL == "" {
		logger.Warn("JUDGE_URL not set, code submissions will fail as judge-unavailable")
	}
	judgeClient := judge.NewClient(cfg.Server.JudgeURL, logger)

	// Metrics registry, optionally exposed on its own listener.
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	if cfg.Server.EnableMetrics {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsAddr := cfg.Server.Host + ":" + cfg.Server.MetricsPort
		go func() {
			logger.Info("metrics listening", zap.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	manager := room.NewManager(ctx, logger, metrics, library, judgeClient, snapshots, results,
		room.Options{AllowNegativeSkip: cfg.Server.AllowNegativeSkip},
		room.ManagerConfig{RoomTimeout: cfg.Server.RoomTimeout, Settings: cfg.Match})
	defer manager.Close()

	h := handlers.New(logger, manager, cfg)
	router := handlers.SetupRouter(h, cfg, nil)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
