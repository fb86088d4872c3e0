package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/akademi-sis/akademi/internal/app"
	"github.com/akademi-sis/akademi/internal/attendance"
	"github.com/akademi-sis/akademi/internal/auth"
	"github.com/akademi-sis/akademi/internal/platform/db"
	"github.com/akademi-sis/akademi/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	attendanceService := attendance.NewService(attendance.NewRepository(dbpool), nil)
	authRepo := auth.NewRepository(dbpool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(jobs.SMTPConfig{
				Host: cfg.SMTPHost,
				Port: cfg.SMTPPort,
				From: cfg.SMTPFrom,
			}, logger)},
			{Type: jobs.TaskTypeAttendanceRecap, Handler: jobs.NewAttendanceRecapHandler(attendanceService, logger)},
			{Type: jobs.TaskTypeSessionsPurge, Handler: jobs.NewSessionsPurgeHandler(authRepo, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 18 * * *", Task: jobs.NewAttendanceRecapTask()},
			{Spec: "30 2 * * *", Task: jobs.NewSessionsPurgeTask()},
		},
	})
	if err != nil {
		logger.Error("create worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
