package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/psyscribe/psyscribe/internal/config"
	v1 "github.com/psyscribe/psyscribe/internal/handler/v1"
	"github.com/psyscribe/psyscribe/internal/llm"
	"github.com/psyscribe/psyscribe/internal/repository"
	"github.com/psyscribe/psyscribe/internal/service"
	"github.com/psyscribe/psyscribe/internal/transcription"
	"github.com/psyscribe/psyscribe/pkg/auth"
	"github.com/psyscribe/psyscribe/pkg/database"
	"github.com/psyscribe/psyscribe/pkg/logger"
	"github.com/psyscribe/psyscribe/pkg/metrics"
	"github.com/psyscribe/psyscribe/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("psyscribe")

	// Track pool usage for capacity alerts.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if sqlDB, derr := db.DB(); derr == nil {
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}
	}()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	checklistRepo := repository.NewChecklistRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// External clients
	llmClient := llm.NewClient(cfg.AI, collector, log)
	transcriptionClient := transcription.NewClient(cfg.Transcription, log)

	// Services
	jwtManager := auth.NewJWTManager(cfg.JWT)
	auditSvc := service.NewAuditService(auditRepo, collector, log)
	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.AI, auditSvc, log)
	noteSvc := service.NewNoteService(noteRepo, patientRepo, settingsSvc, llmClient, transcriptionClient, auditSvc, log)
	checklistSvc := service.NewChecklistService(checklistRepo, noteRepo, settingsSvc, llmClient, cfg.Analysis, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:     cfg,
		JWTManager: jwtManager,
		Collector:  collector,
		Log:        log,

		Auth:     v1.NewAuthHandler(authSvc),
		Patients: v1.NewPatientHandler(patientSvc, checklistSvc),
		Notes:    v1.NewNoteHandler(noteSvc, checklistSvc, collector, cfg.Transcription.MaxUploadBytes, log),
		Settings: v1.NewSettingsHandler(settingsSvc),
		Health:   v1.NewHealthHandler(db, transcriptionClient, cfg.App.Version),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	// Drain the audit buffer before closing the database.
	auditSvc.Shutdown()

	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("tracer shutdown failed", zap.Error(err))
	}

	if sqlDB, derr := db.DB(); derr == nil {
		_ = sqlDB.Close()
	}

	log.Info("shutdown complete")
	return nil
}
