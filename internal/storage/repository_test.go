package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbot/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestBudgetUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetBudget(ctx, 1, "2026-09")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got != nil {
		t.Errorf("GetBudget on empty table = %v; want nil", *got)
	}

	if err := repo.UpsertBudget(ctx, 1, "2026-09", 2500); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if err := repo.UpsertBudget(ctx, 1, "2026-09", 3000); err != nil {
		t.Fatalf("UpsertBudget overwrite: %v", err)
	}

	got, err = repo.GetBudget(ctx, 1, "2026-09")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got == nil || *got != 3000 {
		t.Errorf("GetBudget = %v; want 3000 (last write wins)", got)
	}

	// Other users and months are isolated.
	if got, _ := repo.GetBudget(ctx, 2, "2026-09"); got != nil {
		t.Error("budget leaked across users")
	}
	if got, _ := repo.GetBudget(ctx, 1, "2026-10"); got != nil {
		t.Error("budget leaked across months")
	}
}

func TestRuleLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.AddRule(ctx, core.Rule{
		UserID: 1, Category: "Food", Name: "Groceries", Period: core.PeriodDaily, Amount: 15,
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	rules, err := repo.ListRules(ctx, 1)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != id || rules[0].Period != core.PeriodDaily {
		t.Errorf("ListRules = %+v; want one daily rule with id %d", rules, id)
	}

	deleted, err := repo.DeleteRule(ctx, 1, id)
	if err != nil || !deleted {
		t.Fatalf("DeleteRule = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.DeleteRule(ctx, 1, id)
	if err != nil || deleted {
		t.Errorf("DeleteRule of missing id = %v, %v; want false, nil", deleted, err)
	}
}

func TestExpenseInsertAggregateAndUndo(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, e := range []core.Expense{
		{UserID: 1, Month: "2026-09", Category: "Food", Name: "Lunch", BaseAmount: 20, Currency: "CHF", OriginalAmount: 20, FXRate: 1},
		{UserID: 1, Month: "2026-09", Category: "Food", Name: "Snacks", BaseAmount: 10, Currency: "CHF", OriginalAmount: 10, FXRate: 1},
		{UserID: 1, Month: "2026-09", Category: "Travel", Name: "Tram", BaseAmount: 5, Currency: "EUR", OriginalAmount: 5.4, FXRate: 0.93, FXDate: "2026-09-01"},
	} {
		if _, err := repo.InsertExpense(ctx, e); err != nil {
			t.Fatalf("InsertExpense: %v", err)
		}
	}

	spent, total, err := repo.SpentByCategory(ctx, 1, "2026-09")
	if err != nil {
		t.Fatalf("SpentByCategory: %v", err)
	}
	if spent["Food"] != 30 || spent["Travel"] != 5 {
		t.Errorf("spent = %v; want Food 30, Travel 5", spent)
	}
	if total != 35 {
		t.Errorf("total = %v; want 35", total)
	}

	last, err := repo.DeleteLastExpense(ctx, 1, "2026-09")
	if err != nil {
		t.Fatalf("DeleteLastExpense: %v", err)
	}
	if last.Name != "Tram" || last.Currency != "EUR" {
		t.Errorf("DeleteLastExpense = %+v; want the Tram expense", last)
	}

	_, total, err = repo.SpentByCategory(ctx, 1, "2026-09")
	if err != nil {
		t.Fatal(err)
	}
	if total != 30 {
		t.Errorf("total after undo = %v; want 30", total)
	}
}

func TestDeleteLastExpenseEmptyMonth(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.DeleteLastExpense(context.Background(), 1, "2026-09")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteLastExpense on empty month = %v; want ErrNotFound", err)
	}
}

func TestGetExpenseRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertExpense(ctx, core.Expense{
		UserID: 7, Month: "2026-09", Category: "Food", Name: "Dinner",
		BaseAmount: 46.5, Currency: "EUR", OriginalAmount: 50, FXRate: 0.93, FXDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}

	e, err := repo.GetExpense(ctx, id)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if e.UserID != 7 || e.BaseAmount != 46.5 || e.FXRate != 0.93 || e.CreatedAt.IsZero() {
		t.Errorf("GetExpense = %+v; round trip lost fields", e)
	}

	if err := repo.MarkExpenseSynced(ctx, id); err != nil {
		t.Errorf("MarkExpenseSynced: %v", err)
	}

	if _, err := repo.GetExpense(ctx, id+999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExpense missing id = %v; want ErrNotFound", err)
	}
}

func TestRateUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, found, err := repo.GetRate(ctx, "2026-09-01", "EUR", "CHF")
	if err != nil || found {
		t.Fatalf("GetRate on empty table = found=%v, err=%v; want miss", found, err)
	}

	if err := repo.PutRate(ctx, "2026-09-01", "EUR", "CHF", 0.93); err != nil {
		t.Fatalf("PutRate: %v", err)
	}
	// Same-day upsert: last write wins.
	if err := repo.PutRate(ctx, "2026-09-01", "EUR", "CHF", 0.94); err != nil {
		t.Fatalf("PutRate upsert: %v", err)
	}

	rate, found, err := repo.GetRate(ctx, "2026-09-01", "EUR", "CHF")
	if err != nil || !found {
		t.Fatalf("GetRate = found=%v, err=%v; want hit", found, err)
	}
	if rate != 0.94 {
		t.Errorf("rate = %v; want 0.94", rate)
	}

	// Distinct days are distinct rows.
	if _, found, _ := repo.GetRate(ctx, "2026-09-02", "EUR", "CHF"); found {
		t.Error("rate leaked across days")
	}
}

func TestRolloverBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	month, err := repo.LastSeenMonth(ctx, 1)
	if err != nil || month != "" {
		t.Fatalf("LastSeenMonth for new user = %q, %v; want empty", month, err)
	}

	if err := repo.SetLastSeenMonth(ctx, 1, "2026-08"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetLastSeenMonth(ctx, 1, "2026-09"); err != nil {
		t.Fatal(err)
	}
	month, err = repo.LastSeenMonth(ctx, 1)
	if err != nil || month != "2026-09" {
		t.Errorf("LastSeenMonth = %q, %v; want 2026-09", month, err)
	}

	if _, err := repo.AddRule(ctx, core.Rule{UserID: 1, Category: "Food", Name: "Groceries", Period: core.PeriodMonthly, Amount: 400}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddRule(ctx, core.Rule{UserID: 1, Category: "Rent", Name: "Rent", Period: core.PeriodMonthly, Amount: 1200}); err != nil {
		t.Fatal(err)
	}

	n, err := repo.SnapshotRules(ctx, 1, "2026-08")
	if err != nil {
		t.Fatalf("SnapshotRules: %v", err)
	}
	if n != 2 {
		t.Errorf("SnapshotRules = %d rows; want 2", n)
	}

	users, err := repo.ListKnownUsers(ctx)
	if err != nil || len(users) != 1 || users[0] != 1 {
		t.Errorf("ListKnownUsers = %v, %v; want [1]", users, err)
	}
}

func TestResetAllUserData(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBudget(ctx, 1, "2026-09", 1000); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddRule(ctx, core.Rule{UserID: 1, Category: "Food", Name: "x", Period: core.PeriodDaily, Amount: 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.InsertExpense(ctx, core.Expense{UserID: 1, Month: "2026-09", Category: "Food", Name: "y", BaseAmount: 9, Currency: "CHF", OriginalAmount: 9, FXRate: 1}); err != nil {
		t.Fatal(err)
	}
	// Another user's data must survive.
	if err := repo.UpsertBudget(ctx, 2, "2026-09", 500); err != nil {
		t.Fatal(err)
	}

	if err := repo.ResetAllUserData(ctx, 1); err != nil {
		t.Fatalf("ResetAllUserData: %v", err)
	}

	if b, _ := repo.GetBudget(ctx, 1, "2026-09"); b != nil {
		t.Error("budget survived reset")
	}
	if rules, _ := repo.ListRules(ctx, 1); len(rules) != 0 {
		t.Error("rules survived reset")
	}
	if _, total, _ := repo.SpentByCategory(ctx, 1, "2026-09"); total != 0 {
		t.Error("expenses survived reset")
	}
	if b, _ := repo.GetBudget(ctx, 2, "2026-09"); b == nil || *b != 500 {
		t.Error("reset must not touch other users")
	}
}
