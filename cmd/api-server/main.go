package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/api"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/app"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/db"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/logging"
	redisclient "github.com/pantpujan017/ai-chatbot-appointment-system/internal/redis"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New("api-server", cfg.Env)
	if err := run(cfg, logger); err != nil {
		logger.Error("api-server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "version", cfg.Version)

	if err := cfg.RequirePostgres(); err != nil {
		return err
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "api-server",
		Version:      cfg.Version,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSamplingRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracer shutdown", "err", err)
		}
	}()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	if err == nil {
		err = db.Migrate(pgCtx, pgPool)
	}
	cancelPg()
	if err != nil {
		return err
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	store, locker, redisCheck, closeRedis := conversationBackends(rootCtx, cfg, logger)
	defer closeRedis()

	docs, docStore, err := app.OpenDocuments(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := docStore.Close(); err != nil {
			logger.Warn("error closing document store", "err", err)
		}
	}()

	appointments := appointment.NewService(appointment.NewPgRepository(pgPool), nil, logger)
	assistant := app.NewAssistant(cfg, app.CompletionClient(cfg), docs, appointments, logger)
	manager := conversation.NewManager(assistant, store, locker, logger)

	router := api.NewRouter(api.RouterConfig{
		Conversations: manager,
		Documents:     docs,
		Appointments:  appointments,
		Postgres:      postgresChecker(pgPool),
		Redis:         redisCheck,
		Logger:        logger,
		Env:           cfg.Env,
		Version:       cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("api-server stopped cleanly")
	return nil
}

// conversationBackends uses Redis for sessions and locks when it is reachable
// and falls back to process memory otherwise, which only suits a single
// instance.
func conversationBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (conversation.Store, conversation.Locker, api.Checker, func()) {
	rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Warn("redis unavailable, keeping conversations in memory", "err", err)
		return conversation.NewMemoryStore(), conversation.NewLocalLocker(), nil, func() {}
	}
	logger.Info("connected to Redis", "addr", cfg.RedisAddr)

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", "err", err)
		}
	}

	return redisclient.NewSessionStore(rdb, cfg.SessionTTL),
		redisclient.NewConversationLocker(rdb, cfg.LockTTL),
		redisChecker(rdb),
		closeFn
}

func postgresChecker(pool *pgxpool.Pool) api.Checker {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

func redisChecker(rdb *redis.Client) api.Checker {
	return func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) }
}
