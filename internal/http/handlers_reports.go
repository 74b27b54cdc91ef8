package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dailyboard/internal/core"
	"dailyboard/internal/export"
	"dailyboard/internal/report"
)

type reportResponse struct {
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	TotalFunds        float64            `json:"total_funds"`
	TotalExpenses     float64            `json:"total_expenses"`
	Balance           float64            `json:"balance"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	DetailedList      []expenseResponse  `json:"detailed_list"`
}

func toReportResponse(snap report.Snapshot) reportResponse {
	breakdown := make(map[string]float64, len(snap.CategoryBreakdown))
	for name, total := range snap.CategoryBreakdown {
		breakdown[name] = total.Amount()
	}
	detailed := make([]expenseResponse, 0, len(snap.Expenses))
	for _, e := range snap.Expenses {
		detailed = append(detailed, toExpenseResponse(e))
	}
	return reportResponse{
		StartDate:         snap.StartDate.String(),
		EndDate:           snap.EndDate.String(),
		TotalFunds:        snap.TotalFunds.Amount(),
		TotalExpenses:     snap.TotalExpenses.Amount(),
		Balance:           snap.Balance.Amount(),
		CategoryBreakdown: breakdown,
		DetailedList:      detailed,
	}
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	s.generateReport(w, r, report.PeriodDaily, core.Date{}, core.Date{}, nil)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	s.generateReport(w, r, report.PeriodMonthly, core.Date{}, core.Date{}, nil)
}

func (s *Server) handleCustomReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startParam := strings.TrimSpace(q.Get("start"))
	endParam := strings.TrimSpace(q.Get("end"))
	if startParam == "" || endParam == "" {
		respondError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := core.ParseDate(startParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", startParam))
		return
	}
	end, err := core.ParseDate(endParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", endParam))
		return
	}

	var categoryID *int64
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid category id %q", v))
			return
		}
		categoryID = &id
	}

	s.generateReport(w, r, report.PeriodCustom, start, end, categoryID)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request, kind report.PeriodKind, start, end core.Date, categoryID *int64) {
	period, err := report.ResolvePeriod(kind, time.Now(), start, end)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.composer.Generate(r.Context(), userID(r), period, report.Options{CategoryID: categoryID})
	if err != nil {
		slog.ErrorContext(r.Context(), "Report generation failed", "kind", kind, "error", err)
		respondError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	s.metrics.reportsTotal.WithLabelValues(string(kind)).Inc()
	respondJSON(w, http.StatusOK, toReportResponse(snap))
}

// handleLastReport redisplays the cached snapshot without touching the store.
func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.composer.Last(userID(r))
	if !ok {
		respondError(w, http.StatusNotFound, "no report generated yet")
		return
	}
	respondJSON(w, http.StatusOK, toReportResponse(snap))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.composer.Last(userID(r))
	if !ok {
		respondError(w, http.StatusNotFound, "no report generated yet")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=report_%s_%s.csv", snap.StartDate.String(), snap.EndDate.String()))
	if err := export.WriteCSV(w, snap); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
