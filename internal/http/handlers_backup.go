package http

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"dailyboard/internal/core"
)

type backupResponse struct {
	GeneratedAt string             `json:"generated_at"`
	Expenses    []expenseResponse  `json:"expenses"`
	Funds       []fundResponse     `json:"funds"`
	Categories  []lookupResponse   `json:"categories"`
	Units       []lookupResponse   `json:"units"`
	Favorites   []favoriteResponse `json:"favorites"`
	Settings    settingsResponse   `json:"settings"`
}

// handleBackup assembles the caller's full data set into one JSON document.
// The six table reads run concurrently.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var (
		expenses   []core.Expense
		funds      []core.Fund
		categories []core.Category
		units      []core.Unit
		favorites  []core.Favorite
		settings   core.Settings
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ListAllExpenses(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		funds, err = s.repo.ListAllFunds(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.repo.ListCategories(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		units, err = s.repo.ListUnits(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = s.repo.ListFavorites(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.repo.GetSettings(ctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		respondStoreError(w, r, err, "assemble backup")
		return
	}

	out := backupResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Expenses:    make([]expenseResponse, 0, len(expenses)),
		Funds:       make([]fundResponse, 0, len(funds)),
		Categories:  categoriesToLookups(categories),
		Units:       unitsToLookups(units),
		Favorites:   make([]favoriteResponse, 0, len(favorites)),
		Settings:    settingsResponse{EditMode: settings.EditMode},
	}
	for _, e := range expenses {
		out.Expenses = append(out.Expenses, toExpenseResponse(e))
	}
	for _, f := range funds {
		out.Funds = append(out.Funds, toFundResponse(f))
	}
	for _, f := range favorites {
		out.Favorites = append(out.Favorites, favoriteResponse{
			ID:         f.ID,
			ItemName:   f.ItemName,
			CategoryID: f.CategoryID,
			UnitID:     f.UnitID,
			Quantity:   f.Quantity,
		})
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=backup_%s.json", time.Now().UTC().Format("2006-01-02")))
	respondJSON(w, http.StatusOK, out)
}
