package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dailyboard/internal/ocr"
)

const maxReceiptUpload = 10 << 20

// handleUploadReceipt stores the image in Drive, opens a pending scan row
// and, when the queue is configured, enqueues the OCR job.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		respondError(w, http.StatusServiceUnavailable, "receipt storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	name := fmt.Sprintf("receipt_%s_%d_%s", userID(r), time.Now().UnixMilli(), header.Filename)

	fileID, err := s.receipts.Upload(r.Context(), name, contentType, file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt upload failed", "error", err)
		respondError(w, http.StatusBadGateway, "receipt upload failed")
		return
	}

	url, err := s.receipts.ShareURL(r.Context(), fileID, s.receiptTTL)
	if err != nil {
		slog.ErrorContext(r.Context(), "Receipt share link failed", "file_id", fileID, "error", err)
		respondError(w, http.StatusBadGateway, "receipt link failed")
		return
	}

	scanID, err := s.repo.CreateReceiptScan(r.Context(), userID(r), url)
	if err != nil {
		respondStoreError(w, r, err, "create receipt scan")
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReceiptScan(r.Context(), scanID); err != nil {
			// The upload stands, extraction just will not run automatically.
			slog.WarnContext(r.Context(), "Failed to enqueue receipt scan", "scan_id", scanID, "error", err)
		} else {
			s.metrics.scanEnqueued.Inc()
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"file_id": fileID,
		"url":     url,
		"scan_id": scanID,
	})
}

type scanResponse struct {
	ID      int64      `json:"id"`
	Status  string     `json:"status"`
	Items   []ocr.Item `json:"items"`
	Total   float64    `json:"total"`
	Date    string     `json:"date,omitempty"`
	Shop    string     `json:"shop,omitempty"`
	RawText string     `json:"raw_text,omitempty"`
}

func (s *Server) handleGetReceiptScan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	scan, err := s.repo.GetReceiptScan(r.Context(), id, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get receipt scan")
		return
	}

	items := []ocr.Item{}
	if scan.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(scan.ItemsJSON), &items); err != nil {
			slog.WarnContext(r.Context(), "Stored scan items unreadable", "scan_id", scan.ID, "error", err)
			items = []ocr.Item{}
		}
	}

	respondJSON(w, http.StatusOK, scanResponse{
		ID:      scan.ID,
		Status:  scan.Status,
		Items:   items,
		Total:   float64(scan.TotalCents) / 100,
		Date:    scan.ScanDate,
		Shop:    scan.Shop,
		RawText: scan.RawText,
	})
}

type ocrRequest struct {
	ImageURL string `json:"imageUrl"`
}

type ocrResponse struct {
	Success bool     `json:"success"`
	Data    *ocrData `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type ocrData struct {
	Items []ocr.Item `json:"items"`
	Total float64    `json:"total"`
	Date  string     `json:"date"`
	Shop  string     `json:"shop"`
}

// handleOCRReceipt runs extraction synchronously. Rate-limit and payment
// failures keep their upstream status so the client can tell them apart;
// everything else degrades to a soft {success:false} reply.
func (s *Server) handleOCRReceipt(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "ocr is not configured")
		return
	}

	var req ocrRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}

	result, err := s.extractor.Extract(r.Context(), req.ImageURL)
	switch {
	case errors.Is(err, ocr.ErrRateLimited):
		respondJSON(w, http.StatusTooManyRequests, ocrResponse{Success: false, Error: "rate limited, try again later"})
		return
	case errors.Is(err, ocr.ErrPaymentRequired):
		respondJSON(w, http.StatusPaymentRequired, ocrResponse{Success: false, Error: "ocr credits exhausted"})
		return
	case err != nil:
		slog.WarnContext(r.Context(), "Receipt extraction failed", "error", err)
		respondJSON(w, http.StatusOK, ocrResponse{Success: false, Error: "no data extracted"})
		return
	}

	respondJSON(w, http.StatusOK, ocrResponse{
		Success: true,
		Data: &ocrData{
			Items: result.Items,
			Total: result.Total,
			Date:  result.Date,
			Shop:  result.Shop,
		},
	})
}
