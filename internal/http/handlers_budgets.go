package http

import (
	"encoding/json"
	"net/http"
	"time"

	"dailyboard/internal/core"
)

type budgetRequest struct {
	CategoryID   int64       `json:"category_id"`
	MonthlyLimit json.Number `json:"monthly_limit"`
}

type budgetResponse struct {
	ID           int64   `json:"id"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	MonthlyLimit float64 `json:"monthly_limit"`
	Spent        float64 `json:"spent"`
	Utilization  float64 `json:"utilization"`
	Level        string  `json:"level"`
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.MonthlyLimit.String())
	if err != nil {
		respondValidationError(w, err)
		return
	}

	b := core.Budget{
		UserID:       userID(r),
		CategoryID:   req.CategoryID,
		MonthlyLimit: core.Money{Cents: cents},
	}
	if err := b.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := s.repo.UpsertBudget(r.Context(), b); err != nil {
		respondStoreError(w, r, err, "upsert budget")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// handleListBudgets returns each budget with its current-month spend and
// utilization classification.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgetSpends(r.Context(), userID(r), time.Now())
	if err != nil {
		respondStoreError(w, r, err, "list budgets")
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		utilization, level := core.BudgetUtilization(b.Budget.MonthlyLimit, b.Spent)
		out = append(out, budgetResponse{
			ID:           b.Budget.ID,
			CategoryID:   b.Budget.CategoryID,
			CategoryName: b.Budget.CategoryName,
			MonthlyLimit: b.Budget.MonthlyLimit.Amount(),
			Spent:        b.Spent.Amount(),
			Utilization:  utilization,
			Level:        string(level),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteBudget(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete budget")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
