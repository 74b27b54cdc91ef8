package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns; the repository converts them to core
// domain types.
type (
	Expense struct {
		ID              int64
		UserID          string
		ExpenseDate     string
		ItemName        string
		CategoryID      sql.NullInt64
		CategoryName    sql.NullString
		UnitID          sql.NullInt64
		Quantity        float64
		TotalPriceCents int64
		Notes           string
		ReceiptImageURL string
		BatchID         string
	}

	Fund struct {
		ID          int64
		UserID      string
		FundDate    string
		AmountCents int64
		SourceNote  string
	}

	Lookup struct {
		ID     int64
		UserID string
		Name   string
	}

	Favorite struct {
		ID         int64
		UserID     string
		ItemName   string
		CategoryID sql.NullInt64
		UnitID     sql.NullInt64
		Quantity   float64
	}

	BudgetWithSpent struct {
		ID                int64
		UserID            string
		CategoryID        int64
		CategoryName      string
		MonthlyLimitCents int64
		SpentCents        int64
	}

	Family struct {
		ID         int64
		OwnerID    string
		InviteCode string
	}

	FamilyMember struct {
		ID       int64
		FamilyID int64
		UserID   string
		CanAdd   bool
	}

	ReceiptScan struct {
		ID         int64
		UserID     string
		ImageURL   string
		Status     string
		ItemsJSON  string
		TotalCents int64
		ScanDate   string
		Shop       string
		RawText    string
	}
)

// Receipt scan states.
const (
	ScanPending = "pending"
	ScanDone    = "done"
	ScanFailed  = "failed"
)

const expenseColumns = `e.id, e.user_id, e.expense_date, e.item_name, e.category_id, c.name,
e.unit_id, e.quantity, e.total_price_cents, e.notes, e.receipt_image_url, e.batch_id`

func scanExpense(row interface{ Scan(...any) error }) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.UserID, &e.ExpenseDate, &e.ItemName, &e.CategoryID, &e.CategoryName,
		&e.UnitID, &e.Quantity, &e.TotalPriceCents, &e.Notes, &e.ReceiptImageURL, &e.BatchID)
	return e, err
}

type CreateExpenseParams struct {
	UserID          string
	ExpenseDate     string
	ItemName        string
	CategoryID      sql.NullInt64
	UnitID          sql.NullInt64
	Quantity        float64
	TotalPriceCents int64
	Notes           string
	ReceiptImageURL string
	BatchID         string
}

const createExpense = `
INSERT INTO expenses (user_id, expense_date, item_name, category_id, unit_id, quantity, total_price_cents, notes, receipt_image_url, batch_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createExpense,
		arg.UserID, arg.ExpenseDate, arg.ItemName, arg.CategoryID, arg.UnitID,
		arg.Quantity, arg.TotalPriceCents, arg.Notes, arg.ReceiptImageURL, arg.BatchID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getExpense = `
SELECT ` + expenseColumns + `
FROM expenses e LEFT JOIN expense_categories c ON c.id = e.category_id
WHERE e.id = ? AND e.user_id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64, userID string) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id, userID))
}

const listExpensesByDateRange = `
SELECT ` + expenseColumns + `
FROM expenses e LEFT JOIN expense_categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ?
ORDER BY e.expense_date DESC, e.id DESC`

const listExpensesByDateRangeAndCategory = `
SELECT ` + expenseColumns + `
FROM expenses e LEFT JOIN expense_categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ? AND e.category_id = ?
ORDER BY e.expense_date DESC, e.id DESC`

type ListExpensesParams struct {
	UserID     string
	StartDate  string
	EndDate    string
	CategoryID sql.NullInt64
}

func (q *Queries) ListExpensesByDateRange(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if arg.CategoryID.Valid {
		rows, err = q.db.QueryContext(ctx, listExpensesByDateRangeAndCategory,
			arg.UserID, arg.StartDate, arg.EndDate, arg.CategoryID.Int64)
	} else {
		rows, err = q.db.QueryContext(ctx, listExpensesByDateRange,
			arg.UserID, arg.StartDate, arg.EndDate)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

const listAllExpenses = `
SELECT ` + expenseColumns + `
FROM expenses e LEFT JOIN expense_categories c ON c.id = e.category_id
WHERE e.user_id = ?
ORDER BY e.expense_date DESC, e.id DESC`

func (q *Queries) ListAllExpenses(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listAllExpenses, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

const listExpensesByBatch = `
SELECT ` + expenseColumns + `
FROM expenses e LEFT JOIN expense_categories c ON c.id = e.category_id
WHERE e.batch_id = ? AND e.user_id = ?
ORDER BY e.id`

func (q *Queries) ListExpensesByBatch(ctx context.Context, batchID, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByBatch, batchID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

type UpdateExpenseParams struct {
	ID              int64
	UserID          string
	ExpenseDate     string
	ItemName        string
	CategoryID      sql.NullInt64
	UnitID          sql.NullInt64
	Quantity        float64
	TotalPriceCents int64
	Notes           string
	ReceiptImageURL string
}

const updateExpense = `
UPDATE expenses
SET expense_date = ?, item_name = ?, category_id = ?, unit_id = ?, quantity = ?, total_price_cents = ?, notes = ?, receipt_image_url = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateExpense,
		arg.ExpenseDate, arg.ItemName, arg.CategoryID, arg.UnitID, arg.Quantity,
		arg.TotalPriceCents, arg.Notes, arg.ReceiptImageURL, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpensesByBatch = `DELETE FROM expenses WHERE batch_id = ? AND user_id = ?`

func (q *Queries) DeleteExpensesByBatch(ctx context.Context, batchID, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpensesByBatch, batchID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type CreateFundParams struct {
	UserID      string
	FundDate    string
	AmountCents int64
	SourceNote  string
}

const createFund = `
INSERT INTO funds (user_id, fund_date, amount_cents, source_note)
VALUES (?, ?, ?, ?)`

func (q *Queries) CreateFund(ctx context.Context, arg CreateFundParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createFund, arg.UserID, arg.FundDate, arg.AmountCents, arg.SourceNote)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listFundsByDateRange = `
SELECT id, user_id, fund_date, amount_cents, source_note
FROM funds
WHERE user_id = ? AND fund_date >= ? AND fund_date <= ?
ORDER BY fund_date DESC, id DESC`

func (q *Queries) ListFundsByDateRange(ctx context.Context, userID, startDate, endDate string) ([]Fund, error) {
	rows, err := q.db.QueryContext(ctx, listFundsByDateRange, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funds []Fund
	for rows.Next() {
		var f Fund
		if err := rows.Scan(&f.ID, &f.UserID, &f.FundDate, &f.AmountCents, &f.SourceNote); err != nil {
			return nil, err
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

const listAllFunds = `
SELECT id, user_id, fund_date, amount_cents, source_note
FROM funds
WHERE user_id = ?
ORDER BY fund_date DESC, id DESC`

func (q *Queries) ListAllFunds(ctx context.Context, userID string) ([]Fund, error) {
	rows, err := q.db.QueryContext(ctx, listAllFunds, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funds []Fund
	for rows.Next() {
		var f Fund
		if err := rows.Scan(&f.ID, &f.UserID, &f.FundDate, &f.AmountCents, &f.SourceNote); err != nil {
			return nil, err
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

type UpdateFundParams struct {
	ID          int64
	UserID      string
	FundDate    string
	AmountCents int64
	SourceNote  string
}

const updateFund = `
UPDATE funds SET fund_date = ?, amount_cents = ?, source_note = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateFund(ctx context.Context, arg UpdateFundParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateFund, arg.FundDate, arg.AmountCents, arg.SourceNote, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteFund = `DELETE FROM funds WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteFund(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFund, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Lookup tables (categories, units, tags) share one shape.

func (q *Queries) createLookup(ctx context.Context, table, userID, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO `+table+` (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *Queries) listLookup(ctx context.Context, table, userID string) ([]Lookup, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, user_id, name FROM `+table+` WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Lookup
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (q *Queries) deleteLookup(ctx context.Context, table string, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) CreateCategory(ctx context.Context, userID, name string) (int64, error) {
	return q.createLookup(ctx, "expense_categories", userID, name)
}

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]Lookup, error) {
	return q.listLookup(ctx, "expense_categories", userID)
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64, userID string) (int64, error) {
	return q.deleteLookup(ctx, "expense_categories", id, userID)
}

func (q *Queries) CreateUnit(ctx context.Context, userID, name string) (int64, error) {
	return q.createLookup(ctx, "units", userID, name)
}

func (q *Queries) ListUnits(ctx context.Context, userID string) ([]Lookup, error) {
	return q.listLookup(ctx, "units", userID)
}

func (q *Queries) DeleteUnit(ctx context.Context, id int64, userID string) (int64, error) {
	return q.deleteLookup(ctx, "units", id, userID)
}

func (q *Queries) CreateTag(ctx context.Context, userID, name string) (int64, error) {
	return q.createLookup(ctx, "tags", userID, name)
}

func (q *Queries) ListTags(ctx context.Context, userID string) ([]Lookup, error) {
	return q.listLookup(ctx, "tags", userID)
}

func (q *Queries) DeleteTag(ctx context.Context, id int64, userID string) (int64, error) {
	return q.deleteLookup(ctx, "tags", id, userID)
}

const tagExpense = `INSERT OR IGNORE INTO expense_tags (expense_id, tag_id) VALUES (?, ?)`

func (q *Queries) TagExpense(ctx context.Context, expenseID, tagID int64) error {
	_, err := q.db.ExecContext(ctx, tagExpense, expenseID, tagID)
	return err
}

const untagExpense = `DELETE FROM expense_tags WHERE expense_id = ? AND tag_id = ?`

func (q *Queries) UntagExpense(ctx context.Context, expenseID, tagID int64) error {
	_, err := q.db.ExecContext(ctx, untagExpense, expenseID, tagID)
	return err
}

const listExpenseTags = `
SELECT t.id, t.user_id, t.name
FROM tags t JOIN expense_tags et ON et.tag_id = t.id
WHERE et.expense_id = ?
ORDER BY t.name`

func (q *Queries) ListExpenseTags(ctx context.Context, expenseID int64) ([]Lookup, error) {
	rows, err := q.db.QueryContext(ctx, listExpenseTags, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Lookup
	for rows.Next() {
		var l Lookup
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name); err != nil {
			return nil, err
		}
		tags = append(tags, l)
	}
	return tags, rows.Err()
}

type CreateFavoriteParams struct {
	UserID     string
	ItemName   string
	CategoryID sql.NullInt64
	UnitID     sql.NullInt64
	Quantity   float64
}

const createFavorite = `
INSERT INTO favorites (user_id, item_name, category_id, unit_id, quantity)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateFavorite(ctx context.Context, arg CreateFavoriteParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createFavorite, arg.UserID, arg.ItemName, arg.CategoryID, arg.UnitID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listFavorites = `
SELECT id, user_id, item_name, category_id, unit_id, quantity
FROM favorites WHERE user_id = ? ORDER BY item_name`

func (q *Queries) ListFavorites(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := q.db.QueryContext(ctx, listFavorites, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ItemName, &f.CategoryID, &f.UnitID, &f.Quantity); err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

const deleteFavorite = `DELETE FROM favorites WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteFavorite(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFavorite, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertBudget = `
INSERT INTO budgets (user_id, category_id, monthly_limit_cents)
VALUES (?, ?, ?)
ON CONFLICT (user_id, category_id) DO UPDATE SET monthly_limit_cents = excluded.monthly_limit_cents`

func (q *Queries) UpsertBudget(ctx context.Context, userID string, categoryID, monthlyLimitCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, userID, categoryID, monthlyLimitCents)
	return err
}

// ListBudgetsWithSpent returns each budget together with the expense total of
// the given date range (the caller passes the current month bounds; "spent"
// is always computed on read, never stored).
const listBudgetsWithSpent = `
SELECT b.id, b.user_id, b.category_id, c.name, b.monthly_limit_cents,
       COALESCE((SELECT SUM(e.total_price_cents) FROM expenses e
                 WHERE e.user_id = b.user_id AND e.category_id = b.category_id
                   AND e.expense_date >= ? AND e.expense_date <= ?), 0) AS spent_cents
FROM budgets b JOIN expense_categories c ON c.id = b.category_id
WHERE b.user_id = ?
ORDER BY c.name`

func (q *Queries) ListBudgetsWithSpent(ctx context.Context, userID, monthStart, monthEnd string) ([]BudgetWithSpent, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetsWithSpent, monthStart, monthEnd, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []BudgetWithSpent
	for rows.Next() {
		var b BudgetWithSpent
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName, &b.MonthlyLimitCents, &b.SpentCents); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getEditMode = `SELECT edit_mode FROM settings WHERE user_id = ?`

// GetEditMode returns the persisted edit-mode flag, defaulting to off for
// users without a settings row.
func (q *Queries) GetEditMode(ctx context.Context, userID string) (bool, error) {
	var editMode bool
	err := q.db.QueryRowContext(ctx, getEditMode, userID).Scan(&editMode)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return editMode, err
}

const setEditMode = `
INSERT INTO settings (user_id, edit_mode, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id) DO UPDATE SET edit_mode = excluded.edit_mode, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) SetEditMode(ctx context.Context, userID string, editMode bool) error {
	_, err := q.db.ExecContext(ctx, setEditMode, userID, editMode)
	return err
}

const createFamily = `INSERT INTO families (owner_id, invite_code) VALUES (?, ?)`

func (q *Queries) CreateFamily(ctx context.Context, ownerID, inviteCode string) (int64, error) {
	res, err := q.db.ExecContext(ctx, createFamily, ownerID, inviteCode)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getFamilyByOwner = `SELECT id, owner_id, invite_code FROM families WHERE owner_id = ?`

func (q *Queries) GetFamilyByOwner(ctx context.Context, ownerID string) (Family, error) {
	var f Family
	err := q.db.QueryRowContext(ctx, getFamilyByOwner, ownerID).Scan(&f.ID, &f.OwnerID, &f.InviteCode)
	return f, err
}

const getFamilyByInviteCode = `SELECT id, owner_id, invite_code FROM families WHERE invite_code = ?`

func (q *Queries) GetFamilyByInviteCode(ctx context.Context, inviteCode string) (Family, error) {
	var f Family
	err := q.db.QueryRowContext(ctx, getFamilyByInviteCode, inviteCode).Scan(&f.ID, &f.OwnerID, &f.InviteCode)
	return f, err
}

const getFamilyForUser = `
SELECT f.id, f.owner_id, f.invite_code
FROM families f
WHERE f.owner_id = ?
   OR f.id IN (SELECT family_id FROM family_members WHERE user_id = ?)
LIMIT 1`

func (q *Queries) GetFamilyForUser(ctx context.Context, userID string) (Family, error) {
	var f Family
	err := q.db.QueryRowContext(ctx, getFamilyForUser, userID, userID).Scan(&f.ID, &f.OwnerID, &f.InviteCode)
	return f, err
}

const addFamilyMember = `INSERT INTO family_members (family_id, user_id, can_add) VALUES (?, ?, ?)`

func (q *Queries) AddFamilyMember(ctx context.Context, familyID int64, userID string, canAdd bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, addFamilyMember, familyID, userID, canAdd)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listFamilyMembers = `
SELECT id, family_id, user_id, can_add FROM family_members WHERE family_id = ? ORDER BY id`

func (q *Queries) ListFamilyMembers(ctx context.Context, familyID int64) ([]FamilyMember, error) {
	rows, err := q.db.QueryContext(ctx, listFamilyMembers, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []FamilyMember
	for rows.Next() {
		var m FamilyMember
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.CanAdd); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const setMemberCanAdd = `UPDATE family_members SET can_add = ? WHERE family_id = ? AND user_id = ?`

func (q *Queries) SetMemberCanAdd(ctx context.Context, familyID int64, userID string, canAdd bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, setMemberCanAdd, canAdd, familyID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const removeFamilyMember = `DELETE FROM family_members WHERE family_id = ? AND user_id = ?`

func (q *Queries) RemoveFamilyMember(ctx context.Context, familyID int64, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, removeFamilyMember, familyID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createReceiptScan = `INSERT INTO receipt_scans (user_id, image_url) VALUES (?, ?)`

func (q *Queries) CreateReceiptScan(ctx context.Context, userID, imageURL string) (int64, error) {
	res, err := q.db.ExecContext(ctx, createReceiptScan, userID, imageURL)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type SetReceiptScanResultParams struct {
	ID         int64
	Status     string
	ItemsJSON  string
	TotalCents int64
	ScanDate   string
	Shop       string
	RawText    string
}

const setReceiptScanResult = `
UPDATE receipt_scans
SET status = ?, items_json = ?, total_cents = ?, scan_date = ?, shop = ?, raw_text = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) SetReceiptScanResult(ctx context.Context, arg SetReceiptScanResultParams) error {
	_, err := q.db.ExecContext(ctx, setReceiptScanResult,
		arg.Status, arg.ItemsJSON, arg.TotalCents, arg.ScanDate, arg.Shop, arg.RawText, arg.ID)
	return err
}

const getReceiptScan = `
SELECT id, user_id, image_url, status, items_json, total_cents, scan_date, shop, raw_text
FROM receipt_scans WHERE id = ? AND user_id = ?`

func (q *Queries) GetReceiptScan(ctx context.Context, id int64, userID string) (ReceiptScan, error) {
	var s ReceiptScan
	err := q.db.QueryRowContext(ctx, getReceiptScan, id, userID).Scan(
		&s.ID, &s.UserID, &s.ImageURL, &s.Status, &s.ItemsJSON, &s.TotalCents, &s.ScanDate, &s.Shop, &s.RawText)
	return s, err
}

// GetReceiptScanAny fetches a scan without an owner filter. The worker uses
// it because scan jobs only carry the row id.
const getReceiptScanAny = `
SELECT id, user_id, image_url, status, items_json, total_cents, scan_date, shop, raw_text
FROM receipt_scans WHERE id = ?`

func (q *Queries) GetReceiptScanAny(ctx context.Context, id int64) (ReceiptScan, error) {
	var s ReceiptScan
	err := q.db.QueryRowContext(ctx, getReceiptScanAny, id).Scan(
		&s.ID, &s.UserID, &s.ImageURL, &s.Status, &s.ItemsJSON, &s.TotalCents, &s.ScanDate, &s.Shop, &s.RawText)
	return s, err
}
