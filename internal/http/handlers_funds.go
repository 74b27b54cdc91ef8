package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"dailyboard/internal/core"
)

type fundRequest struct {
	Date       string      `json:"date"`
	Amount     json.Number `json:"amount"`
	SourceNote string      `json:"source_note"`
}

type fundResponse struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	SourceNote string  `json:"source_note,omitempty"`
}

func toFundResponse(f core.Fund) fundResponse {
	return fundResponse{
		ID:         f.ID,
		Date:       f.Date.String(),
		Amount:     f.Amount.Amount(),
		SourceNote: f.SourceNote,
	}
}

func (req fundRequest) toCore(userID string) (core.Fund, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Fund{}, err
	}
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.Fund{}, err
	}
	f := core.Fund{
		UserID:     userID,
		Date:       date,
		Amount:     core.Money{Cents: cents},
		SourceNote: strings.TrimSpace(req.SourceNote),
	}
	if err := f.Validate(); err != nil {
		return core.Fund{}, err
	}
	return f, nil
}

func (s *Server) handleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := req.toCore(userID(r))
	if err != nil {
		respondValidationError(w, err)
		return
	}

	id, err := s.repo.CreateFund(r.Context(), f)
	if err != nil {
		respondStoreError(w, r, err, "create fund")
		return
	}
	f.ID = id
	respondJSON(w, http.StatusCreated, toFundResponse(f))
}

func (s *Server) handleListFunds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := parseDateRange(q.Get("start"), q.Get("end"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	funds, err := s.repo.ListFunds(r.Context(), userID(r), start, end)
	if err != nil {
		respondStoreError(w, r, err, "list funds")
		return
	}

	out := make([]fundResponse, 0, len(funds))
	for _, f := range funds {
		out = append(out, toFundResponse(f))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateFund(w http.ResponseWriter, r *http.Request) {
	if !s.requireEditMode(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req fundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := req.toCore(userID(r))
	if err != nil {
		respondValidationError(w, err)
		return
	}
	f.ID = id

	if err := s.repo.UpdateFund(r.Context(), f); err != nil {
		respondStoreError(w, r, err, "update fund")
		return
	}
	respondJSON(w, http.StatusOK, toFundResponse(f))
}

func (s *Server) handleDeleteFund(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteFund(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete fund")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
