package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"budgetbot/internal/core"
)

func newBudgetService(t *testing.T) (*BudgetService, *ExpenseService) {
	t.Helper()
	repo := newTestRepo(t)
	b := NewBudgetService(repo, testLogger())
	b.now = func() time.Time { return testNow }
	e := newExpenseService(t, repo, &fakeResolver{rate: 1}, nil)
	return b, e
}

func TestSetBudgetAndStatusReport(t *testing.T) {
	b, e := newBudgetService(t)
	ctx := context.Background()

	month, err := b.SetBudget(ctx, 1, 1000)
	if err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if month != "2026-09" {
		t.Errorf("SetBudget month = %q; want 2026-09", month)
	}

	if _, err := e.Add(ctx, AddInput{UserID: 1, Category: "Food", Name: "Lunch", Amount: 120}); err != nil {
		t.Fatal(err)
	}

	report, err := b.StatusReport(ctx, 1)
	if err != nil {
		t.Fatalf("StatusReport: %v", err)
	}
	if report.Budget == nil || *report.Budget != 1000 {
		t.Errorf("report budget = %v; want 1000", report.Budget)
	}
	if report.Metrics.SpentTotal != 120 {
		t.Errorf("SpentTotal = %v; want 120", report.Metrics.SpentTotal)
	}
	// No rules, so the whole spend is unplanned overspend.
	if report.Metrics.RemainingOverall != 880 {
		t.Errorf("RemainingOverall = %v; want 880", report.Metrics.RemainingOverall)
	}
}

func TestMonthReportWithoutBudget(t *testing.T) {
	b, _ := newBudgetService(t)

	report, err := b.MonthReport(context.Background(), 1, "2026-09")
	if err != nil {
		t.Fatalf("MonthReport: %v", err)
	}
	if report.Budget != nil {
		t.Errorf("budget = %v; want nil when unset", report.Budget)
	}
}

func TestMonthReportRejectsBadMonth(t *testing.T) {
	b, _ := newBudgetService(t)
	if _, err := b.MonthReport(context.Background(), 1, "september"); err == nil {
		t.Error("MonthReport should reject a malformed month key")
	}
}

func TestMonthReportCategoryOrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	b := NewBudgetService(repo, testLogger())
	b.now = func() time.Time { return testNow }
	e := newExpenseService(t, repo, &fakeResolver{rate: 1}, nil)
	ctx := context.Background()

	// Ten categories; the report keeps the top eight by spend.
	for i := 0; i < 10; i++ {
		cat := "Cat" + strings.Repeat("x", i+1)
		if _, err := e.Add(ctx, AddInput{UserID: 1, Category: cat, Name: "n", Amount: float64(10 + i)}); err != nil {
			t.Fatal(err)
		}
	}

	report, err := b.MonthReport(ctx, 1, "2026-09")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Categories) != ReportCategoryLimit {
		t.Fatalf("categories = %d; want %d", len(report.Categories), ReportCategoryLimit)
	}
	// Without plans everything is overspend, so rows come sorted by spend desc.
	for i := 1; i < len(report.Categories); i++ {
		if report.Categories[i].Spent > report.Categories[i-1].Spent {
			t.Errorf("categories not sorted by spend desc: %+v", report.Categories)
		}
	}
}

func TestSetBudgetValidatesAmount(t *testing.T) {
	b, _ := newBudgetService(t)
	if _, err := b.SetBudget(context.Background(), 1, 0); err != core.ErrAmountTooSmall {
		t.Errorf("SetBudget(0) = %v; want ErrAmountTooSmall", err)
	}
}
