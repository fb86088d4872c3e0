package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/akademi-sis/akademi/internal/app"
	"github.com/akademi-sis/akademi/internal/attendance"
	"github.com/akademi-sis/akademi/internal/auth"
	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/classes"
	"github.com/akademi-sis/akademi/internal/dashboard"
	"github.com/akademi-sis/akademi/internal/grades"
	"github.com/akademi-sis/akademi/internal/observability"
	"github.com/akademi-sis/akademi/internal/platform/cache"
	"github.com/akademi-sis/akademi/internal/platform/db"
	"github.com/akademi-sis/akademi/internal/shared"
	"github.com/akademi-sis/akademi/internal/students"
	"github.com/akademi-sis/akademi/internal/teachers"
	"github.com/akademi-sis/akademi/internal/users"
	"github.com/akademi-sis/akademi/internal/view"
	"github.com/akademi-sis/akademi/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "akademi_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	tokens := auth.NewTokens(auth.TokenConfig{
		Secret: []byte(cfg.TokenSecret),
		Issuer: cfg.TokenIssuer,
		TTL:    cfg.TokenTTL,
	})
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)
	authMiddleware := auth.Middleware{Logger: logger, Service: authService}

	guard := authz.Middleware{
		Logger:   logger,
		LoginURL: "/auth/login",
		DenyHook: func(reason authz.Reason) { metrics.CountAuthzDeny(string(reason)) },
	}
	facts := authz.NewFactFinder(dbpool)

	auditLogger := shared.NewAuditLogger(dbpool)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("create jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	studentsService := students.NewService(students.NewRepository(dbpool), auditLogger)
	studentsHandler := students.NewHandler(logger, studentsService, templates, csrfManager, guard, facts)

	teachersService := teachers.NewService(teachers.NewRepository(dbpool), auditLogger)
	teachersHandler := teachers.NewHandler(logger, teachersService, templates, csrfManager, guard)

	classesService := classes.NewService(classes.NewRepository(dbpool), auditLogger)
	classesHandler := classes.NewHandler(logger, classesService, templates, csrfManager, guard, facts)

	attendanceService := attendance.NewService(attendance.NewRepository(dbpool), auditLogger)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, templates, csrfManager, guard, facts)

	gradesService := grades.NewService(grades.NewRepository(dbpool), auditLogger)
	gradesHandler := grades.NewHandler(logger, gradesService, templates, csrfManager, guard, facts)

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger, jobsClient)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, guard)

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthMiddleware:    authMiddleware,
		AuthHandler:       authHandler,
		DashboardHandler:  dashboardHandler,
		StudentsHandler:   studentsHandler,
		TeachersHandler:   teachersHandler,
		ClassesHandler:    classesHandler,
		AttendanceHandler: attendanceHandler,
		GradesHandler:     gradesHandler,
		UsersHandler:      usersHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppRequestTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
