package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"budgetbot/internal/fx"
	"budgetbot/internal/log"
	"budgetbot/internal/services"
	"budgetbot/internal/storage"
)

type stubResolver struct {
	rate float64
	err  error
}

func (s *stubResolver) Resolve(_ context.Context, from, to string) (string, float64, error) {
	if s.err != nil {
		return "", 0, s.err
	}
	if !fx.IsValidFormat(strings.ToUpper(from)) {
		return "", 0, &fx.FormatError{Code: strings.ToUpper(from)}
	}
	return "2026-09-15", s.rate, nil
}

func newTestRouter(t *testing.T, resolver services.RateResolver) *Router {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return NewRouter(
		services.NewExpenseService(repo, resolver, nil, "CHF", logger, nil),
		services.NewRuleService(repo, resolver, "CHF", logger),
		services.NewBudgetService(repo, logger),
		services.NewExportService(repo),
		services.NewRolloverService(repo, logger),
		logger,
		nil,
	)
}

func TestHandleRequiresCommand(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	resp := r.Handle(context.Background(), 1, "hello there")
	if !strings.Contains(resp.Text, "/start") {
		t.Errorf("reply = %q; want a pointer to /start", resp.Text)
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	resp := r.Handle(context.Background(), 1, "/frobnicate")
	if !strings.Contains(resp.Text, "Unknown command") {
		t.Errorf("reply = %q; want unknown-command message", resp.Text)
	}
}

func TestSetBudgetAndStatus(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	ctx := context.Background()

	resp := r.Handle(ctx, 1, "/setbudget 1000")
	if !strings.Contains(resp.Text, "1000.00") {
		t.Errorf("setbudget reply = %q", resp.Text)
	}

	resp = r.Handle(ctx, 1, "/status")
	if !strings.Contains(resp.Text, "Budget: 1000.00") {
		t.Errorf("status reply = %q; want the budget line", resp.Text)
	}
}

func TestAddWithQuotedNameAndForeignCurrency(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 0.93})
	resp := r.Handle(context.Background(), 1, `/add Travel "Night train" 100 EUR`)
	if !strings.Contains(resp.Text, "93.00") || !strings.Contains(resp.Text, "Night train") {
		t.Errorf("add reply = %q; want converted amount and quoted name", resp.Text)
	}
}

func TestAddBadCurrencyFormatIsFriendly(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	resp := r.Handle(context.Background(), 1, "/add Food Lunch 10 EURO")
	if !strings.Contains(resp.Text, "3 letters") {
		t.Errorf("reply = %q; want the format hint", resp.Text)
	}
}

func TestAddProviderDownIsFriendly(t *testing.T) {
	r := newTestRouter(t, &stubResolver{err: &fx.ProviderError{From: "EUR", To: "CHF", Err: context.DeadlineExceeded}})
	resp := r.Handle(context.Background(), 1, "/add Food Lunch 10 EUR")
	if !strings.Contains(resp.Text, "unavailable") || !strings.Contains(resp.Text, "Nothing was saved") {
		t.Errorf("reply = %q; want the FX-unavailable message", resp.Text)
	}
}

func TestAddFiresAlertMessage(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	ctx := context.Background()

	r.Handle(ctx, 1, "/setmonthly Food Groceries 100")
	r.Handle(ctx, 1, "/add Food a 90")
	resp := r.Handle(ctx, 1, "/add Food b 20")
	if !strings.Contains(resp.Text, "over plan") {
		t.Errorf("reply = %q; want the category alert", resp.Text)
	}

	// Already over, no repeat.
	resp = r.Handle(ctx, 1, "/add Food c 5")
	if strings.Contains(resp.Text, "over plan") {
		t.Errorf("reply = %q; alert must not re-fire", resp.Text)
	}
}

func TestUndoEmptyMonth(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	resp := r.Handle(context.Background(), 1, "/undo")
	if !strings.Contains(resp.Text, "Nothing to undo") {
		t.Errorf("reply = %q", resp.Text)
	}
}

func TestRulesLifecycleViaCommands(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	ctx := context.Background()

	resp := r.Handle(ctx, 1, "/rules")
	if !strings.Contains(resp.Text, "No rules yet") {
		t.Errorf("empty rules reply = %q", resp.Text)
	}

	r.Handle(ctx, 1, "/setdaily Food Groceries 15")
	resp = r.Handle(ctx, 1, "/rules")
	if !strings.Contains(resp.Text, "Groceries") || !strings.Contains(resp.Text, "daily") {
		t.Errorf("rules reply = %q", resp.Text)
	}

	resp = r.Handle(ctx, 1, "/delrule 1")
	if !strings.Contains(resp.Text, "deleted") {
		t.Errorf("delrule reply = %q", resp.Text)
	}
	resp = r.Handle(ctx, 1, "/delrule 1")
	if !strings.Contains(resp.Text, "No rule") {
		t.Errorf("delrule missing reply = %q", resp.Text)
	}
}

func TestExportReturnsFile(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	ctx := context.Background()

	r.Handle(ctx, 1, "/add Food Lunch 12")
	resp := r.Handle(ctx, 1, "/export")
	if resp.FileName != "expenses.csv" || len(resp.File) == 0 {
		t.Errorf("export = %q with %d bytes; want expenses.csv with content", resp.FileName, len(resp.File))
	}
	if !strings.Contains(string(resp.File), "Lunch") {
		t.Errorf("export file missing the expense: %q", resp.File)
	}
}

func TestResetAllNeedsConfirmation(t *testing.T) {
	r := newTestRouter(t, &stubResolver{rate: 1})
	ctx := context.Background()

	r.Handle(ctx, 1, "/add Food Lunch 12")

	resp := r.Handle(ctx, 1, "/resetall")
	if !strings.Contains(resp.Text, "confirm") {
		t.Errorf("unconfirmed resetall reply = %q", resp.Text)
	}

	resp = r.Handle(ctx, 1, "/resetall yes")
	if !strings.Contains(resp.Text, "deleted") {
		t.Errorf("confirmed resetall reply = %q", resp.Text)
	}

	resp = r.Handle(ctx, 1, "/undo")
	if !strings.Contains(resp.Text, "Nothing to undo") {
		t.Errorf("data survived resetall: %q", resp.Text)
	}
}
