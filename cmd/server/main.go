package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"gstfiling/internal/config"
	"gstfiling/internal/filing"
	"gstfiling/internal/gst"
	"gstfiling/internal/handler"
	"gstfiling/internal/logger"
	"gstfiling/internal/repository/postgres"
	"gstfiling/internal/router"
	"gstfiling/internal/service"
	s3storage "gstfiling/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize engine and services
	engine := gst.NewEngine(cfg.Engine.Table(), gst.Options{AssumeStandardRate: cfg.Engine.AssumeStandardRate})
	machine := filing.NewMachine(engine)

	// Initialize export archive
	var archive service.ExportArchiver
	if cfg.S3.Enabled() {
		store, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		archive = service.NewExportArchiver(store, cfg.S3.Bucket, cfg.S3.PresignExpiry, logger.WithComponent("export_archiver"))
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("export archiving enabled")
	}

	filingSvc := service.NewFilingService(machine, postgres.NewTxRunner(db), archive, logger.WithComponent("filing_service"))

	// Initialize handlers
	healthH := handler.NewHealthHandler(db)
	profileH := handler.NewProfileHandler(filingSvc)
	filingH := handler.NewFilingHandler(filingSvc)

	r := router.Setup(logger.WithComponent("http"), cfg.CORS.AllowedOrigins, healthH, profileH, filingH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
