// Package worker runs receipt OCR jobs delivered over AMQP.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"dailyboard/internal/amqp"
	"dailyboard/internal/ocr"
	"dailyboard/internal/storage"
)

// ScanStore is the slice of the record store the worker needs.
type ScanStore interface {
	GetReceiptScanAny(ctx context.Context, id int64) (storage.ReceiptScan, error)
	SetReceiptScanResult(ctx context.Context, arg storage.SetReceiptScanResultParams) error
}

// Extractor runs OCR on one receipt image.
type Extractor interface {
	Extract(ctx context.Context, imageDataURL string) (ocr.Result, error)
}

// ScanWorker resolves queued scan jobs: fetch the scan row, run extraction,
// persist the outcome.
type ScanWorker struct {
	store     ScanStore
	extractor Extractor
}

func NewScanWorker(store ScanStore, extractor Extractor) *ScanWorker {
	return &ScanWorker{store: store, extractor: extractor}
}

// HandleScanMessage processes a single receipt scan job. A rate-limited
// gateway returns an error so the message is requeued and retried later.
// Every other extraction failure marks the scan failed and consumes the
// message, the upload flow already succeeded for the user.
func (w *ScanWorker) HandleScanMessage(ctx context.Context, msg *amqp.ReceiptScanMessage) error {
	scan, err := w.store.GetReceiptScanAny(ctx, msg.ScanID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Scan job references missing row, dropping", "scan_id", msg.ScanID)
			return nil
		}
		return fmt.Errorf("load receipt scan: %w", err)
	}

	if scan.Status != storage.ScanPending {
		slog.InfoContext(ctx, "Scan already resolved, skipping",
			"scan_id", scan.ID,
			"status", scan.Status)
		return nil
	}

	result, err := w.extractor.Extract(ctx, scan.ImageURL)
	if errors.Is(err, ocr.ErrRateLimited) {
		return fmt.Errorf("ocr gateway busy for scan %d: %w", scan.ID, err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Receipt extraction failed",
			"scan_id", scan.ID,
			"error", err)
		return w.markFailed(ctx, scan.ID, err)
	}

	itemsJSON, err := json.Marshal(result.Items)
	if err != nil {
		return w.markFailed(ctx, scan.ID, fmt.Errorf("encode items: %w", err))
	}

	if err := w.store.SetReceiptScanResult(ctx, storage.SetReceiptScanResultParams{
		ID:         scan.ID,
		Status:     storage.ScanDone,
		ItemsJSON:  string(itemsJSON),
		TotalCents: toCents(result.Total),
		ScanDate:   result.Date,
		Shop:       result.Shop,
		RawText:    result.RawText,
	}); err != nil {
		return fmt.Errorf("store scan result: %w", err)
	}

	slog.InfoContext(ctx, "Receipt scan completed",
		"scan_id", scan.ID,
		"items", len(result.Items),
		"shop", result.Shop)
	return nil
}

func (w *ScanWorker) markFailed(ctx context.Context, scanID int64, cause error) error {
	if err := w.store.SetReceiptScanResult(ctx, storage.SetReceiptScanResultParams{
		ID:        scanID,
		Status:    storage.ScanFailed,
		ItemsJSON: "[]",
		RawText:   cause.Error(),
	}); err != nil {
		return fmt.Errorf("mark scan failed: %w", err)
	}
	return nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
