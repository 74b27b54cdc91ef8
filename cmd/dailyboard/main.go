package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dailyboard/internal/amqp"
	"dailyboard/internal/auth"
	"dailyboard/internal/config"
	apphttp "dailyboard/internal/http"
	applog "dailyboard/internal/log"
	"dailyboard/internal/ocr"
	"dailyboard/internal/receipts"
	"dailyboard/internal/report"
	"dailyboard/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	cache, err := report.NewSnapshotCache(cfg.ReportCacheDir)
	if err != nil {
		logger.Error("Failed to open report snapshot cache", "error", err, "dir", cfg.ReportCacheDir)
		os.Exit(1)
	}
	composer := report.NewComposer(repo, cache)

	tokens := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	opts := apphttp.Options{ReceiptURLTTL: cfg.ReceiptURLTTL}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts.Publisher = amqpClient
		logger.Info("Receipt scan queue enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Receipt scan queue disabled - no AMQP_URL provided")
	}

	if cfg.DriveEnabled() {
		store, err := receipts.NewStore(context.Background(), receipts.Config{
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			FolderID:        cfg.DriveFolderID,
		})
		if err != nil {
			logger.Error("Failed to initialize receipt image store", "error", err)
			os.Exit(1)
		}
		opts.Receipts = store
		logger.Info("Receipt image store enabled", "folder_id", cfg.DriveFolderID)
	} else {
		logger.Info("Receipt image store disabled - no Drive credentials provided")
	}

	if cfg.OCREnabled() {
		opts.Extractor = ocr.NewClient(cfg.OCRGatewayURL, cfg.OCRAPIKey, cfg.OCRModel, cfg.OCRTimeout)
		logger.Info("OCR bridge enabled", "model", cfg.OCRModel)
	} else {
		logger.Info("OCR bridge disabled - no OCR_API_KEY provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, composer, tokens, opts)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting dailyboard server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
