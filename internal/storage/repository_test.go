package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dailyboard/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestExpenseLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, "user-1", "Groceries")
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	e := core.Expense{
		UserID:     "user-1",
		Date:       core.NewDate(2025, 3, 10),
		ItemName:   "Rice",
		CategoryID: &cat.ID,
		Quantity:   2,
		TotalPrice: core.Money{Cents: 450},
		Notes:      "5kg bag",
	}
	id, err := repo.CreateExpense(ctx, e)
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	got, err := repo.GetExpense(ctx, id, "user-1")
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.ItemName != "Rice" || got.TotalPrice.Cents != 450 {
		t.Errorf("GetExpense() = %+v, want Rice at 450 cents", got)
	}
	if got.CategoryName != "Groceries" {
		t.Errorf("CategoryName = %q, want Groceries", got.CategoryName)
	}

	if _, err := repo.GetExpense(ctx, id, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExpense() for other user error = %v, want ErrNotFound", err)
	}

	got.Notes = "7kg bag"
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	if err := repo.DeleteExpense(ctx, id, "user-1"); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if err := repo.DeleteExpense(ctx, id, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteExpense() error = %v, want ErrNotFound", err)
	}
}

func TestListExpensesCategoryFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	food, _ := repo.CreateCategory(ctx, "user-1", "Food")
	fuel, _ := repo.CreateCategory(ctx, "user-1", "Fuel")

	for _, e := range []core.Expense{
		{UserID: "user-1", Date: core.NewDate(2025, 3, 1), ItemName: "Bread", CategoryID: &food.ID, TotalPrice: core.Money{Cents: 200}},
		{UserID: "user-1", Date: core.NewDate(2025, 3, 2), ItemName: "Petrol", CategoryID: &fuel.ID, TotalPrice: core.Money{Cents: 5000}},
		{UserID: "user-1", Date: core.NewDate(2025, 4, 1), ItemName: "Milk", CategoryID: &food.ID, TotalPrice: core.Money{Cents: 150}},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense(%s) error = %v", e.ItemName, err)
		}
	}

	march, err := repo.ListExpenses(ctx, "user-1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31), nil)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(march) != 2 {
		t.Fatalf("ListExpenses() returned %d rows, want 2", len(march))
	}

	foodOnly, err := repo.ListExpenses(ctx, "user-1", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31), &food.ID)
	if err != nil {
		t.Fatalf("ListExpenses(food) error = %v", err)
	}
	if len(foodOnly) != 1 || foodOnly[0].ItemName != "Bread" {
		t.Errorf("ListExpenses(food) = %+v, want only Bread", foodOnly)
	}
}

func TestExpenseBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batchID, ids, err := repo.CreateExpenseBatch(ctx, []core.Expense{
		{UserID: "user-1", Date: core.NewDate(2025, 5, 1), ItemName: "Eggs", TotalPrice: core.Money{Cents: 300}},
		{UserID: "user-1", Date: core.NewDate(2025, 5, 1), ItemName: "Butter", TotalPrice: core.Money{Cents: 550}},
	})
	if err != nil {
		t.Fatalf("CreateExpenseBatch() error = %v", err)
	}
	if batchID == "" || len(ids) != 2 {
		t.Fatalf("CreateExpenseBatch() = (%q, %v), want non-empty batch id and 2 ids", batchID, ids)
	}

	rows, err := repo.ListExpenseBatch(ctx, batchID, "user-1")
	if err != nil {
		t.Fatalf("ListExpenseBatch() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListExpenseBatch() returned %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.BatchID != batchID {
			t.Errorf("expense %d batch id = %q, want %q", row.ID, row.BatchID, batchID)
		}
	}

	deleted, err := repo.DeleteExpenseBatch(ctx, batchID, "user-1")
	if err != nil {
		t.Fatalf("DeleteExpenseBatch() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteExpenseBatch() removed %d rows, want 2", deleted)
	}
	if _, err := repo.DeleteExpenseBatch(ctx, batchID, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteExpenseBatch() error = %v, want ErrNotFound", err)
	}
}

func TestFundLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateFund(ctx, core.Fund{
		UserID:     "user-1",
		Date:       core.NewDate(2025, 6, 1),
		Amount:     core.Money{Cents: 50000},
		SourceNote: "monthly deposit",
	})
	if err != nil {
		t.Fatalf("CreateFund() error = %v", err)
	}

	funds, err := repo.ListFunds(ctx, "user-1", core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 30))
	if err != nil {
		t.Fatalf("ListFunds() error = %v", err)
	}
	if len(funds) != 1 || funds[0].Amount.Cents != 50000 {
		t.Fatalf("ListFunds() = %+v, want one fund of 50000 cents", funds)
	}

	if err := repo.DeleteFund(ctx, id, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteFund() for other user error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteFund(ctx, id, "user-1"); err != nil {
		t.Errorf("DeleteFund() error = %v", err)
	}
}

func TestBudgetSpendsDerivedOnRead(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, _ := repo.CreateCategory(ctx, "user-1", "Food")
	if err := repo.UpsertBudget(ctx, core.Budget{
		UserID:       "user-1",
		CategoryID:   cat.ID,
		MonthlyLimit: core.Money{Cents: 10000},
	}); err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}

	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	for _, e := range []core.Expense{
		{UserID: "user-1", Date: core.NewDate(2025, 7, 3), ItemName: "A", CategoryID: &cat.ID, TotalPrice: core.Money{Cents: 2500}},
		{UserID: "user-1", Date: core.NewDate(2025, 7, 20), ItemName: "B", CategoryID: &cat.ID, TotalPrice: core.Money{Cents: 1500}},
		// outside the month, must not count
		{UserID: "user-1", Date: core.NewDate(2025, 6, 30), ItemName: "C", CategoryID: &cat.ID, TotalPrice: core.Money{Cents: 9999}},
	} {
		if _, err := repo.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	budgets, err := repo.ListBudgetSpends(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("ListBudgetSpends() error = %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("ListBudgetSpends() returned %d rows, want 1", len(budgets))
	}
	if budgets[0].Spent.Cents != 4000 {
		t.Errorf("Spent = %d cents, want 4000", budgets[0].Spent.Cents)
	}
	if budgets[0].Budget.CategoryName != "Food" {
		t.Errorf("CategoryName = %q, want Food", budgets[0].Budget.CategoryName)
	}
}

func TestEditModeDefaultsOff(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	settings, err := repo.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings.EditMode {
		t.Error("EditMode defaults to true, want false")
	}

	if err := repo.SetEditMode(ctx, "user-1", true); err != nil {
		t.Fatalf("SetEditMode() error = %v", err)
	}
	settings, err = repo.GetSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetSettings() after set error = %v", err)
	}
	if !settings.EditMode {
		t.Error("EditMode = false after enabling, want true")
	}
}

func TestFamilyJoinByInviteCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fam, err := repo.CreateFamily(ctx, "owner-1")
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	if len(fam.InviteCode) != 8 {
		t.Errorf("invite code %q has length %d, want 8", fam.InviteCode, len(fam.InviteCode))
	}

	joined, err := repo.JoinFamily(ctx, fam.InviteCode, "member-1")
	if err != nil {
		t.Fatalf("JoinFamily() error = %v", err)
	}
	if joined.ID != fam.ID {
		t.Errorf("JoinFamily() family id = %d, want %d", joined.ID, fam.ID)
	}

	if _, err := repo.JoinFamily(ctx, "NOPE1234", "member-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("JoinFamily() with bad code error = %v, want ErrNotFound", err)
	}

	members, err := repo.ListFamilyMembers(ctx, fam.ID)
	if err != nil {
		t.Fatalf("ListFamilyMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].CanAdd {
		t.Errorf("ListFamilyMembers() = %+v, want one member without can_add", members)
	}

	if err := repo.SetMemberCanAdd(ctx, fam.ID, "member-1", true); err != nil {
		t.Fatalf("SetMemberCanAdd() error = %v", err)
	}
	if err := repo.RemoveFamilyMember(ctx, fam.ID, "member-1"); err != nil {
		t.Fatalf("RemoveFamilyMember() error = %v", err)
	}
}
