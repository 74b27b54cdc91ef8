// Package report resolves calendar periods and composes fund/expense
// snapshots for the reporting endpoints.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"dailyboard/internal/core"
)

type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodMonthly PeriodKind = "monthly"
	PeriodCustom  PeriodKind = "custom"
)

// Period is an inclusive date range.
type Period struct {
	Kind  PeriodKind
	Start core.Date
	End   core.Date
}

// ResolvePeriod turns a period kind into concrete bounds. Daily covers the
// single day of now, monthly the full calendar month containing now. Custom
// passes the caller's bounds through verbatim.
func ResolvePeriod(kind PeriodKind, now time.Time, start, end core.Date) (Period, error) {
	switch kind {
	case PeriodDaily:
		today := core.DateOf(now)
		return Period{Kind: kind, Start: today, End: today}, nil
	case PeriodMonthly:
		first := core.NewDate(now.Year(), int(now.Month()), 1)
		last := core.Date{Time: first.AddDate(0, 1, -1)}
		return Period{Kind: kind, Start: first, End: last}, nil
	case PeriodCustom:
		return Period{Kind: kind, Start: start, End: end}, nil
	default:
		return Period{}, fmt.Errorf("unknown period kind %q", kind)
	}
}

// Snapshot is one generated report. It is a value: callers get copies and
// cannot mutate the cached slot.
type Snapshot struct {
	StartDate         core.Date             `json:"start_date"`
	EndDate           core.Date             `json:"end_date"`
	TotalFunds        core.Money            `json:"total_funds"`
	TotalExpenses     core.Money            `json:"total_expenses"`
	Balance           core.Money            `json:"balance"`
	Funds             []core.Fund           `json:"funds"`
	Expenses          []core.Expense        `json:"expenses"`
	CategoryBreakdown map[string]core.Money `json:"category_breakdown"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// RecordSource is the slice of the store the composer reads from.
type RecordSource interface {
	ListFunds(ctx context.Context, userID string, start, end core.Date) ([]core.Fund, error)
	ListExpenses(ctx context.Context, userID string, start, end core.Date, categoryID *int64) ([]core.Expense, error)
}

type Composer struct {
	store RecordSource
	cache *SnapshotCache
}

func NewComposer(store RecordSource, cache *SnapshotCache) *Composer {
	return &Composer{store: store, cache: cache}
}

// Options narrow a report beyond its date range.
type Options struct {
	// CategoryID limits the expense side to one category. Only custom
	// reports set it.
	CategoryID *int64
}

// Generate fetches funds and expenses for the period concurrently and
// composes the snapshot. On success the snapshot replaces the user's cached
// slot; on any fetch failure the cached snapshot is left as it was.
func (c *Composer) Generate(ctx context.Context, userID string, period Period, opts Options) (Snapshot, error) {
	var (
		funds    []core.Fund
		expenses []core.Expense
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		funds, err = c.store.ListFunds(gctx, userID, period.Start, period.End)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = c.store.ListExpenses(gctx, userID, period.Start, period.End, opts.CategoryID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("fetch report records: %w", err)
	}

	snap := Snapshot{
		StartDate:         period.Start,
		EndDate:           period.End,
		TotalFunds:        core.SumFunds(funds),
		TotalExpenses:     core.SumExpenses(expenses),
		Balance:           core.Balance(funds, expenses),
		Funds:             funds,
		Expenses:          expenses,
		CategoryBreakdown: core.GroupByCategory(expenses),
		GeneratedAt:       time.Now().UTC(),
	}

	if c.cache != nil {
		if err := c.cache.Put(userID, snap); err != nil {
			// The report itself is fine, only redisplay is degraded.
			slog.WarnContext(ctx, "Failed to persist report snapshot", "user_id", userID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Report generated",
		"user_id", userID,
		"kind", period.Kind,
		"start", period.Start.String(),
		"end", period.End.String(),
		"expenses", len(expenses),
		"funds", len(funds))
	return snap, nil
}

// Last returns the user's most recently generated snapshot, if any.
func (c *Composer) Last(userID string) (Snapshot, bool) {
	if c.cache == nil {
		return Snapshot{}, false
	}
	return c.cache.Get(userID)
}
