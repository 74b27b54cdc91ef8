package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dailyboard/internal/core"
	"dailyboard/internal/receipts"
)

type expenseRequest struct {
	Date       string      `json:"date"`
	ItemName   string      `json:"item_name"`
	CategoryID *int64      `json:"category_id"`
	UnitID     *int64      `json:"unit_id"`
	Quantity   float64     `json:"quantity"`
	TotalPrice json.Number `json:"total_price"`
	Notes      string      `json:"notes"`
	ReceiptURL string      `json:"receipt_url"`
}

type expenseResponse struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	ItemName     string  `json:"item_name"`
	CategoryID   *int64  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	UnitID       *int64  `json:"unit_id"`
	Quantity     float64 `json:"quantity"`
	TotalPrice   float64 `json:"total_price"`
	Notes        string  `json:"notes,omitempty"`
	ReceiptURL   string  `json:"receipt_url,omitempty"`
	BatchID      string  `json:"batch_id,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Date:         e.Date.String(),
		ItemName:     e.ItemName,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		UnitID:       e.UnitID,
		Quantity:     e.Quantity,
		TotalPrice:   e.TotalPrice.Amount(),
		Notes:        e.Notes,
		ReceiptURL:   e.ReceiptURL,
		BatchID:      e.BatchID,
	}
}

func (req expenseRequest) toCore(userID string) (core.Expense, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(req.TotalPrice.String())
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		UserID:     userID,
		Date:       date,
		ItemName:   strings.TrimSpace(req.ItemName),
		CategoryID: req.CategoryID,
		UnitID:     req.UnitID,
		Quantity:   req.Quantity,
		TotalPrice: core.Money{Cents: cents},
		Notes:      strings.TrimSpace(req.Notes),
		ReceiptURL: strings.TrimSpace(req.ReceiptURL),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := req.toCore(userID(r))
	if err != nil {
		respondValidationError(w, err)
		return
	}

	id, err := s.repo.CreateExpense(r.Context(), e)
	if err != nil {
		respondStoreError(w, r, err, "create expense")
		return
	}
	e.ID = id
	respondJSON(w, http.StatusCreated, toExpenseResponse(e))
}

type expenseBatchRequest struct {
	Expenses []expenseRequest `json:"expenses"`
}

// handleCreateExpenseBatch inserts a shopping list as one atomic group.
func (s *Server) handleCreateExpenseBatch(w http.ResponseWriter, r *http.Request) {
	var req expenseBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Expenses) == 0 {
		respondError(w, http.StatusBadRequest, "expenses list is empty")
		return
	}

	expenses := make([]core.Expense, 0, len(req.Expenses))
	for _, item := range req.Expenses {
		e, err := item.toCore(userID(r))
		if err != nil {
			respondValidationError(w, err)
			return
		}
		expenses = append(expenses, e)
	}

	batchID, ids, err := s.repo.CreateExpenseBatch(r.Context(), expenses)
	if err != nil {
		respondStoreError(w, r, err, "create expense batch")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"batch_id": batchID,
		"ids":      ids,
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseDateRange(q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var categoryID *int64
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category id")
			return
		}
		categoryID = &id
	}

	expenses, err := s.repo.ListExpenses(r.Context(), userID(r), start, end, categoryID)
	if err != nil {
		respondStoreError(w, r, err, "list expenses")
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

// parseDateRange defaults to the current month when bounds are absent.
func parseDateRange(startParam, endParam string) (core.Date, core.Date, error) {
	now := time.Now()
	start := core.NewDate(now.Year(), int(now.Month()), 1)
	end := core.Date{Time: start.AddDate(0, 1, -1)}

	if v := strings.TrimSpace(startParam); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
		start = parsed
	}
	if v := strings.TrimSpace(endParam); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
		end = parsed
	}
	return start, end, nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.repo.GetExpense(r.Context(), id, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get expense")
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if !s.requireEditMode(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := req.toCore(userID(r))
	if err != nil {
		respondValidationError(w, err)
		return
	}
	e.ID = id

	if err := s.repo.UpdateExpense(r.Context(), e); err != nil {
		respondStoreError(w, r, err, "update expense")
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := s.repo.GetExpense(r.Context(), id, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "delete expense")
		return
	}

	if err := s.repo.DeleteExpense(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete expense")
		return
	}
	s.cleanupReceipt(r, e.ReceiptURL)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetExpenseBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("batchID")
	expenses, err := s.repo.ListExpenseBatch(r.Context(), batchID, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get expense batch")
		return
	}
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteExpenseBatch(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	batchID := r.PathValue("batchID")
	expenses, err := s.repo.ListExpenseBatch(r.Context(), batchID, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "delete expense batch")
		return
	}

	deleted, err := s.repo.DeleteExpenseBatch(r.Context(), batchID, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "delete expense batch")
		return
	}
	for _, e := range expenses {
		s.cleanupReceipt(r, e.ReceiptURL)
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleListExpenseTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := s.repo.ListExpenseTags(r.Context(), id, userID(r))
	if err != nil {
		respondStoreError(w, r, err, "list expense tags")
		return
	}
	respondJSON(w, http.StatusOK, tagsToLookups(tags))
}

func (s *Server) handleTagExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tagID, err := pathID(r, "tagID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.TagExpense(r.Context(), expenseID, tagID, userID(r)); err != nil {
		respondStoreError(w, r, err, "tag expense")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleUntagExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tagID, err := pathID(r, "tagID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.UntagExpense(r.Context(), expenseID, tagID, userID(r)); err != nil {
		respondStoreError(w, r, err, "untag expense")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// cleanupReceipt removes the Drive file behind a deleted expense. The row is
// already gone, so failures only log.
func (s *Server) cleanupReceipt(r *http.Request, receiptURL string) {
	if s.receipts == nil || receiptURL == "" {
		return
	}
	fileID, ok := receipts.FileIDFromURL(receiptURL)
	if !ok {
		return
	}
	if err := s.receipts.Delete(r.Context(), fileID); err != nil {
		slog.WarnContext(r.Context(), "Receipt image cleanup failed", "file_id", fileID, "error", err)
	}
}

// requireEditMode enforces the persisted per-user edit flag before any
// update goes through.
func (s *Server) requireEditMode(w http.ResponseWriter, r *http.Request) bool {
	settings, err := s.repo.GetSettings(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get settings")
		return false
	}
	if !settings.EditMode {
		respondError(w, http.StatusForbidden, "edit mode is off")
		return false
	}
	return true
}

// requireConfirmation rejects deletes without the explicit confirm flag.
func requireConfirmation(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") != "true" {
		respondError(w, http.StatusBadRequest, "confirm=true is required for deletes")
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
