package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dailyboard/internal/amqp"
	"dailyboard/internal/config"
	applog "dailyboard/internal/log"
	"dailyboard/internal/ocr"
	"dailyboard/internal/storage"
	"dailyboard/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup().WithComponent("worker")
	logger.Info("Starting dailyboard-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if !cfg.OCREnabled() {
		logger.Error("OCR_API_KEY is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	extractor := ocr.NewClient(cfg.OCRGatewayURL, cfg.OCRAPIKey, cfg.OCRModel, cfg.OCRTimeout)
	scanWorker := worker.NewScanWorker(repo, extractor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	err = amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		func(msg *amqp.ReceiptScanMessage) error {
			return scanWorker.HandleScanMessage(ctx, msg)
		})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
