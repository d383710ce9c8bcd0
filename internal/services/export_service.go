package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/storage"
)

// ExportService renders a user's data as CSV documents.
type ExportService struct {
	storage *storage.SQLiteRepository

	now func() time.Time
}

func NewExportService(st *storage.SQLiteRepository) *ExportService {
	return &ExportService{storage: st, now: time.Now}
}

// Expenses exports the current month's expenses.
func (s *ExportService) Expenses(ctx context.Context, userID int64) ([]byte, error) {
	month := core.MonthKey(s.now())
	expenses, err := s.storage.ListExpenses(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "month", "category", "name", "base_amount", "currency", "original_amount", "fx_rate", "fx_date", "created_at"})
	for _, e := range expenses {
		w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Month,
			e.Category,
			e.Name,
			formatAmount(e.BaseAmount),
			e.Currency,
			formatAmount(e.OriginalAmount),
			strconv.FormatFloat(e.FXRate, 'f', -1, 64),
			e.FXDate,
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write expenses csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Rules exports the user's recurring rules.
func (s *ExportService) Rules(ctx context.Context, userID int64) ([]byte, error) {
	rules, err := s.storage.ListRules(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "category", "name", "period", "amount"})
	for _, r := range rules {
		w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Category,
			r.Name,
			string(r.Period),
			formatAmount(r.Amount),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write rules csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Budgets exports every monthly budget the user has ever set.
func (s *ExportService) Budgets(ctx context.Context, userID int64) ([]byte, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"month", "amount"})
	for _, b := range budgets {
		w.Write([]string{b.Month, formatAmount(b.Amount)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write budgets csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
