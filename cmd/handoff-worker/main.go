package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/appointment"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/config"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/db"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/kafka"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/logging"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New("handoff-worker", cfg.Env)
	if err := run(cfg, logger); err != nil {
		logger.Error("handoff-worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("handoff worker starting up",
		"env", cfg.Env,
		"interval", cfg.WorkerInterval,
		"batch", cfg.HandoffBatch,
		"topic", cfg.KafkaTopic,
	)

	if err := cfg.RequirePostgres(); err != nil {
		return err
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "handoff-worker",
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
		_ = shutdownTracing(ctx)
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

	publisher := kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("error closing kafka writer", "err", err)
		}
	}()

	svc := appointment.NewService(appointment.NewPgRepository(pgPool), publisher, logger)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.HandoffBatch, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping handoff worker")
			return nil
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.HandoffBatch, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, batch int, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.PublishPending(runCtx, batch)
	if err != nil {
		logger.Error("handoff run error", "published", n, "err", err)
		return
	}
	logger.Info("handoff run complete", "published", n, "took", time.Since(start))
}
