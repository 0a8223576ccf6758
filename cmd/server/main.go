// Command server runs the development session service that the pomorix
// client talks to.
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

	"github.com/gin-gonic/gin"

	"pomorix/internal/config"
	"pomorix/internal/db"
	"pomorix/internal/handler"
	"pomorix/internal/middleware"
	"pomorix/internal/repository"
	"pomorix/internal/router"
	"pomorix/internal/service"
	"pomorix/migrations"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, migrations.Source(cfg.MigrationsDir))
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "files", applied)
	}

	userRepo := repository.NewUserRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	badgeRepo := repository.NewBadgeRepository(database)

	authService := service.NewAuthService(userRepo, settingsRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	statsService := service.NewStatsService(sessionRepo, badgeRepo, logger)
	sessionService := service.NewSessionService(sessionRepo, taskRepo, settingsRepo, statsService, logger)

	profileHandler := handler.NewProfileHandler(
		service.NewProfileService(userRepo, sessionRepo, statsService, logger),
		service.NewBugReportService(repository.NewBugReportRepository(database), logger),
	)

	cors := middleware.DefaultCORSConfig(cfg.CORSOrigins)
	if len(cfg.CORSMethods) > 0 {
		cors.Methods = cfg.CORSMethods
	}
	cors.MaxAge = cfg.CORSMaxAge

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(authService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Sessions: handler.NewSessionHandler(sessionService),
		Settings: handler.NewSettingsHandler(service.NewSettingsService(settingsRepo, logger)),
		Tasks:    handler.NewTaskHandler(service.NewTaskService(taskRepo, logger)),
		Stats:    handler.NewStatsHandler(statsService),
		Profile:  profileHandler,
	}, cors, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("session service listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
