package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/assembly-hq/assembly/internal/app"
	"github.com/assembly-hq/assembly/internal/events"
	"github.com/assembly-hq/assembly/internal/notifications"
	"github.com/assembly-hq/assembly/internal/platform/db"
	"github.com/assembly-hq/assembly/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	eventRepo := events.NewRepository(pool, logger)
	notificationRepo := notifications.NewRepository(pool, logger)

	materializer := jobs.NewInstanceMaterializer(eventRepo, logger)
	dispatcher := jobs.NewNotificationDispatcher(notificationRepo, logger)

	horizonDays := int(cfg.InstanceWindow / (24 * time.Hour))
	materializeTask, err := jobs.NewInstanceMaterializeTask(jobs.InstanceMaterializePayload{
		HorizonDays: horizonDays,
	})
	if err != nil {
		logger.Error("build materialize task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNotificationDispatch, Handler: dispatcher.Handle},
			{Type: jobs.TaskInstanceMaterialize, Handler: materializer.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: materializeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
