package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dailyboard/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Repository is the SQLite-backed record store. Every method scopes its
// queries to the owning user id.
type Repository struct {
	db      *sql.DB
	queries *Queries
}

// BudgetSpend pairs a budget with its derived current-month spend.
type BudgetSpend struct {
	Budget core.Budget
	Spent  core.Money
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, createExpenseParams(e, ""))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", e.UserID,
		"item", e.ItemName,
		"total_price_cents", e.TotalPrice.Cents,
		"date", e.Date.String())
	return id, nil
}

// CreateExpenseBatch inserts all expenses of one shopping-list submission in
// a single transaction sharing a fresh batch id. Either every row lands or
// none does.
func (r *Repository) CreateExpenseBatch(ctx context.Context, expenses []core.Expense) (string, []int64, error) {
	if len(expenses) == 0 {
		return "", nil, errors.New("empty batch")
	}

	batchID := uuid.NewString()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, fmt.Errorf("begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)
	ids := make([]int64, 0, len(expenses))
	for _, e := range expenses {
		id, err := qtx.CreateExpense(ctx, createExpenseParams(e, batchID))
		if err != nil {
			return "", nil, fmt.Errorf("create batch expense: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("commit batch: %w", err)
	}

	slog.InfoContext(ctx, "Expense batch saved", "batch_id", batchID, "count", len(ids))
	return batchID, ids, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64, userID string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id, userID)
	if err == sql.ErrNoRows {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return toCoreExpense(row)
}

func (r *Repository) ListExpenses(ctx context.Context, userID string, start, end core.Date, categoryID *int64) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByDateRange(ctx, ListExpensesParams{
		UserID:     userID,
		StartDate:  start.String(),
		EndDate:    end.String(),
		CategoryID: nullInt64(categoryID),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toCoreExpenses(rows)
}

// ListAllExpenses returns the user's full expense history, newest first.
func (r *Repository) ListAllExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.queries.ListAllExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	return toCoreExpenses(rows)
}

func (r *Repository) ListExpenseBatch(ctx context.Context, batchID, userID string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByBatch(ctx, batchID, userID)
	if err != nil {
		return nil, fmt.Errorf("list expense batch: %w", err)
	}
	return toCoreExpenses(rows)
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	affected, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:              e.ID,
		UserID:          e.UserID,
		ExpenseDate:     e.Date.String(),
		ItemName:        e.ItemName,
		CategoryID:      nullInt64(e.CategoryID),
		UnitID:          nullInt64(e.UnitID),
		Quantity:        e.Quantity,
		TotalPriceCents: e.TotalPrice.Cents,
		Notes:           e.Notes,
		ReceiptImageURL: e.ReceiptURL,
	})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteExpense(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpenseBatch removes every expense sharing the batch id in one
// transaction, so the group disappears as a whole.
func (r *Repository) DeleteExpenseBatch(ctx context.Context, batchID, userID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch delete: %w", err)
	}
	defer tx.Rollback()

	affected, err := r.queries.WithTx(tx).DeleteExpensesByBatch(ctx, batchID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete expense batch: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch delete: %w", err)
	}

	slog.InfoContext(ctx, "Expense batch deleted", "batch_id", batchID, "count", affected)
	return affected, nil
}

func (r *Repository) CreateFund(ctx context.Context, f core.Fund) (int64, error) {
	id, err := r.queries.CreateFund(ctx, CreateFundParams{
		UserID:      f.UserID,
		FundDate:    f.Date.String(),
		AmountCents: f.Amount.Cents,
		SourceNote:  f.SourceNote,
	})
	if err != nil {
		return 0, fmt.Errorf("create fund: %w", err)
	}

	slog.InfoContext(ctx, "Fund saved",
		"id", id,
		"user_id", f.UserID,
		"amount_cents", f.Amount.Cents,
		"date", f.Date.String())
	return id, nil
}

func (r *Repository) ListFunds(ctx context.Context, userID string, start, end core.Date) ([]core.Fund, error) {
	rows, err := r.queries.ListFundsByDateRange(ctx, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}

	funds := make([]core.Fund, 0, len(rows))
	for _, row := range rows {
		f, err := toCoreFund(row)
		if err != nil {
			return nil, err
		}
		funds = append(funds, f)
	}
	return funds, nil
}

// ListAllFunds returns the user's full fund history, newest first.
func (r *Repository) ListAllFunds(ctx context.Context, userID string) ([]core.Fund, error) {
	rows, err := r.queries.ListAllFunds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list all funds: %w", err)
	}

	funds := make([]core.Fund, 0, len(rows))
	for _, row := range rows {
		f, err := toCoreFund(row)
		if err != nil {
			return nil, err
		}
		funds = append(funds, f)
	}
	return funds, nil
}

func (r *Repository) UpdateFund(ctx context.Context, f core.Fund) error {
	affected, err := r.queries.UpdateFund(ctx, UpdateFundParams{
		ID:          f.ID,
		UserID:      f.UserID,
		FundDate:    f.Date.String(),
		AmountCents: f.Amount.Cents,
		SourceNote:  f.SourceNote,
	})
	if err != nil {
		return fmt.Errorf("update fund: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteFund(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteFund(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete fund: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID, name string) (core.Category, error) {
	id, err := r.queries.CreateCategory(ctx, userID, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return core.Category{ID: id, UserID: userID, Name: name}, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, core.Category{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}
	return categories, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteCategory(ctx, id, userID)
	return affectedToErr(affected, err, "delete category")
}

func (r *Repository) CreateUnit(ctx context.Context, userID, name string) (core.Unit, error) {
	id, err := r.queries.CreateUnit(ctx, userID, name)
	if err != nil {
		return core.Unit{}, fmt.Errorf("create unit: %w", err)
	}
	return core.Unit{ID: id, UserID: userID, Name: name}, nil
}

func (r *Repository) ListUnits(ctx context.Context, userID string) ([]core.Unit, error) {
	rows, err := r.queries.ListUnits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	units := make([]core.Unit, 0, len(rows))
	for _, row := range rows {
		units = append(units, core.Unit{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}
	return units, nil
}

func (r *Repository) DeleteUnit(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteUnit(ctx, id, userID)
	return affectedToErr(affected, err, "delete unit")
}

func (r *Repository) CreateTag(ctx context.Context, userID, name string) (core.Tag, error) {
	id, err := r.queries.CreateTag(ctx, userID, name)
	if err != nil {
		return core.Tag{}, fmt.Errorf("create tag: %w", err)
	}
	return core.Tag{ID: id, UserID: userID, Name: name}, nil
}

func (r *Repository) ListTags(ctx context.Context, userID string) ([]core.Tag, error) {
	rows, err := r.queries.ListTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make([]core.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, core.Tag{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}
	return tags, nil
}

func (r *Repository) DeleteTag(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteTag(ctx, id, userID)
	return affectedToErr(affected, err, "delete tag")
}

func (r *Repository) TagExpense(ctx context.Context, expenseID, tagID int64, userID string) error {
	// Ownership checks before linking: both rows must belong to the caller.
	if _, err := r.GetExpense(ctx, expenseID, userID); err != nil {
		return err
	}
	if err := r.queries.TagExpense(ctx, expenseID, tagID); err != nil {
		return fmt.Errorf("tag expense: %w", err)
	}
	return nil
}

func (r *Repository) UntagExpense(ctx context.Context, expenseID, tagID int64, userID string) error {
	if _, err := r.GetExpense(ctx, expenseID, userID); err != nil {
		return err
	}
	if err := r.queries.UntagExpense(ctx, expenseID, tagID); err != nil {
		return fmt.Errorf("untag expense: %w", err)
	}
	return nil
}

func (r *Repository) ListExpenseTags(ctx context.Context, expenseID int64, userID string) ([]core.Tag, error) {
	if _, err := r.GetExpense(ctx, expenseID, userID); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListExpenseTags(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list expense tags: %w", err)
	}
	tags := make([]core.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, core.Tag{ID: row.ID, UserID: row.UserID, Name: row.Name})
	}
	return tags, nil
}

func (r *Repository) CreateFavorite(ctx context.Context, f core.Favorite) (int64, error) {
	id, err := r.queries.CreateFavorite(ctx, CreateFavoriteParams{
		UserID:     f.UserID,
		ItemName:   f.ItemName,
		CategoryID: nullInt64(f.CategoryID),
		UnitID:     nullInt64(f.UnitID),
		Quantity:   f.Quantity,
	})
	if err != nil {
		return 0, fmt.Errorf("create favorite: %w", err)
	}
	return id, nil
}

func (r *Repository) ListFavorites(ctx context.Context, userID string) ([]core.Favorite, error) {
	rows, err := r.queries.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	favorites := make([]core.Favorite, 0, len(rows))
	for _, row := range rows {
		favorites = append(favorites, core.Favorite{
			ID:         row.ID,
			UserID:     row.UserID,
			ItemName:   row.ItemName,
			CategoryID: int64Ptr(row.CategoryID),
			UnitID:     int64Ptr(row.UnitID),
			Quantity:   row.Quantity,
		})
	}
	return favorites, nil
}

func (r *Repository) DeleteFavorite(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteFavorite(ctx, id, userID)
	return affectedToErr(affected, err, "delete favorite")
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := r.queries.UpsertBudget(ctx, b.UserID, b.CategoryID, b.MonthlyLimit.Cents); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// ListBudgetSpends returns each budget with the spend of the month containing
// now, computed on read.
func (r *Repository) ListBudgetSpends(ctx context.Context, userID string, now time.Time) ([]BudgetSpend, error) {
	monthStart := core.NewDate(now.Year(), int(now.Month()), 1)
	monthEnd := core.Date{Time: monthStart.AddDate(0, 1, -1)}

	rows, err := r.queries.ListBudgetsWithSpent(ctx, userID, monthStart.String(), monthEnd.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	budgets := make([]BudgetSpend, 0, len(rows))
	for _, row := range rows {
		budgets = append(budgets, BudgetSpend{
			Budget: core.Budget{
				ID:           row.ID,
				UserID:       row.UserID,
				CategoryID:   row.CategoryID,
				CategoryName: row.CategoryName,
				MonthlyLimit: core.Money{Cents: row.MonthlyLimitCents},
			},
			Spent: core.Money{Cents: row.SpentCents},
		})
	}
	return budgets, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64, userID string) error {
	affected, err := r.queries.DeleteBudget(ctx, id, userID)
	return affectedToErr(affected, err, "delete budget")
}

func (r *Repository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	editMode, err := r.queries.GetEditMode(ctx, userID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return core.Settings{UserID: userID, EditMode: editMode}, nil
}

func (r *Repository) SetEditMode(ctx context.Context, userID string, editMode bool) error {
	if err := r.queries.SetEditMode(ctx, userID, editMode); err != nil {
		return fmt.Errorf("set edit mode: %w", err)
	}
	slog.InfoContext(ctx, "Edit mode changed", "user_id", userID, "edit_mode", editMode)
	return nil
}

// CreateFamily creates a family owned by the caller with a fresh invite code.
func (r *Repository) CreateFamily(ctx context.Context, ownerID string) (core.Family, error) {
	code, err := generateInviteCode()
	if err != nil {
		return core.Family{}, fmt.Errorf("generate invite code: %w", err)
	}
	id, err := r.queries.CreateFamily(ctx, ownerID, code)
	if err != nil {
		return core.Family{}, fmt.Errorf("create family: %w", err)
	}
	return core.Family{ID: id, OwnerID: ownerID, InviteCode: code}, nil
}

func (r *Repository) GetFamilyForUser(ctx context.Context, userID string) (core.Family, error) {
	row, err := r.queries.GetFamilyForUser(ctx, userID)
	if err == sql.ErrNoRows {
		return core.Family{}, ErrNotFound
	}
	if err != nil {
		return core.Family{}, fmt.Errorf("get family: %w", err)
	}
	return core.Family{ID: row.ID, OwnerID: row.OwnerID, InviteCode: row.InviteCode}, nil
}

// JoinFamily adds the caller to the family matching the invite code. New
// members start without the can_add permission.
func (r *Repository) JoinFamily(ctx context.Context, inviteCode, userID string) (core.Family, error) {
	row, err := r.queries.GetFamilyByInviteCode(ctx, inviteCode)
	if err == sql.ErrNoRows {
		return core.Family{}, ErrNotFound
	}
	if err != nil {
		return core.Family{}, fmt.Errorf("lookup invite code: %w", err)
	}
	if _, err := r.queries.AddFamilyMember(ctx, row.ID, userID, false); err != nil {
		return core.Family{}, fmt.Errorf("add family member: %w", err)
	}
	slog.InfoContext(ctx, "Family member joined", "family_id", row.ID, "user_id", userID)
	return core.Family{ID: row.ID, OwnerID: row.OwnerID, InviteCode: row.InviteCode}, nil
}

func (r *Repository) ListFamilyMembers(ctx context.Context, familyID int64) ([]core.FamilyMember, error) {
	rows, err := r.queries.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	members := make([]core.FamilyMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, core.FamilyMember{
			ID:       row.ID,
			FamilyID: row.FamilyID,
			UserID:   row.UserID,
			CanAdd:   row.CanAdd,
		})
	}
	return members, nil
}

func (r *Repository) SetMemberCanAdd(ctx context.Context, familyID int64, userID string, canAdd bool) error {
	affected, err := r.queries.SetMemberCanAdd(ctx, familyID, userID, canAdd)
	return affectedToErr(affected, err, "set member permission")
}

func (r *Repository) RemoveFamilyMember(ctx context.Context, familyID int64, userID string) error {
	affected, err := r.queries.RemoveFamilyMember(ctx, familyID, userID)
	return affectedToErr(affected, err, "remove family member")
}

func (r *Repository) CreateReceiptScan(ctx context.Context, userID, imageURL string) (int64, error) {
	id, err := r.queries.CreateReceiptScan(ctx, userID, imageURL)
	if err != nil {
		return 0, fmt.Errorf("create receipt scan: %w", err)
	}
	return id, nil
}

func (r *Repository) SetReceiptScanResult(ctx context.Context, arg SetReceiptScanResultParams) error {
	if err := r.queries.SetReceiptScanResult(ctx, arg); err != nil {
		return fmt.Errorf("set receipt scan result: %w", err)
	}
	return nil
}

func (r *Repository) GetReceiptScan(ctx context.Context, id int64, userID string) (ReceiptScan, error) {
	s, err := r.queries.GetReceiptScan(ctx, id, userID)
	if err == sql.ErrNoRows {
		return ReceiptScan{}, ErrNotFound
	}
	if err != nil {
		return ReceiptScan{}, fmt.Errorf("get receipt scan: %w", err)
	}
	return s, nil
}

func (r *Repository) GetReceiptScanAny(ctx context.Context, id int64) (ReceiptScan, error) {
	s, err := r.queries.GetReceiptScanAny(ctx, id)
	if err == sql.ErrNoRows {
		return ReceiptScan{}, ErrNotFound
	}
	if err != nil {
		return ReceiptScan{}, fmt.Errorf("get receipt scan: %w", err)
	}
	return s, nil
}

func createExpenseParams(e core.Expense, batchID string) CreateExpenseParams {
	return CreateExpenseParams{
		UserID:          e.UserID,
		ExpenseDate:     e.Date.String(),
		ItemName:        e.ItemName,
		CategoryID:      nullInt64(e.CategoryID),
		UnitID:          nullInt64(e.UnitID),
		Quantity:        e.Quantity,
		TotalPriceCents: e.TotalPrice.Cents,
		Notes:           e.Notes,
		ReceiptImageURL: e.ReceiptURL,
		BatchID:         batchID,
	}
}

func toCoreExpense(row Expense) (core.Expense, error) {
	date, err := core.ParseDate(row.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored expense %d has invalid date %q", row.ID, row.ExpenseDate)
	}
	return core.Expense{
		ID:           row.ID,
		UserID:       row.UserID,
		Date:         date,
		ItemName:     row.ItemName,
		CategoryID:   int64Ptr(row.CategoryID),
		CategoryName: row.CategoryName.String,
		UnitID:       int64Ptr(row.UnitID),
		Quantity:     row.Quantity,
		TotalPrice:   core.Money{Cents: row.TotalPriceCents},
		Notes:        row.Notes,
		ReceiptURL:   row.ReceiptImageURL,
		BatchID:      row.BatchID,
	}, nil
}

func toCoreExpenses(rows []Expense) ([]core.Expense, error) {
	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreExpense(row)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func toCoreFund(row Fund) (core.Fund, error) {
	date, err := core.ParseDate(row.FundDate)
	if err != nil {
		return core.Fund{}, fmt.Errorf("stored fund %d has invalid date %q", row.ID, row.FundDate)
	}
	return core.Fund{
		ID:         row.ID,
		UserID:     row.UserID,
		Date:       date,
		Amount:     core.Money{Cents: row.AmountCents},
		SourceNote: row.SourceNote,
	}, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func affectedToErr(affected int64, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateInviteCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}
