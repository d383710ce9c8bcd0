package services

import (
	"context"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/storage"
)

// ReportCategoryLimit caps how many category lines a report shows.
const ReportCategoryLimit = 8

// BudgetService sets monthly budgets and builds spend reports.
type BudgetService struct {
	storage *storage.SQLiteRepository
	logger  *log.Logger

	now func() time.Time
}

func NewBudgetService(st *storage.SQLiteRepository, logger *log.Logger) *BudgetService {
	return &BudgetService{
		storage: st,
		logger:  logger.WithComponent(log.ComponentApp),
		now:     time.Now,
	}
}

// CategoryLine is one row of a report's category breakdown.
type CategoryLine struct {
	Category  string
	Planned   float64
	Spent     float64
	Overspend float64
}

// Report is a month's plan-versus-spend summary.
type Report struct {
	Month      string
	Budget     *float64 // nil when no budget is set
	Metrics    core.BudgetMetrics
	Categories []CategoryLine
}

// SetBudget sets or replaces the user's overall budget for the current month.
func (s *BudgetService) SetBudget(ctx context.Context, userID int64, amount float64) (string, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return "", err
	}
	month := core.MonthKey(s.now())
	if err := s.storage.UpsertBudget(ctx, userID, month, amount); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "budget set",
		log.FieldUserID, userID, log.FieldMonth, month, log.FieldAmount, amount)
	return month, nil
}

// StatusReport builds the report for the current month.
func (s *BudgetService) StatusReport(ctx context.Context, userID int64) (Report, error) {
	return s.MonthReport(ctx, userID, core.MonthKey(s.now()))
}

// MonthReport builds the report for an arbitrary "YYYY-MM" month.
func (s *BudgetService) MonthReport(ctx context.Context, userID int64, month string) (Report, error) {
	month, err := core.ParseMonth(month)
	if err != nil {
		return Report{}, err
	}

	rules, err := s.storage.ListRules(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	planned, _, err := core.PlannedMonthly(rules, month)
	if err != nil {
		return Report{}, err
	}
	spent, _, err := s.storage.SpentByCategory(ctx, userID, month)
	if err != nil {
		return Report{}, err
	}
	budget, err := s.storage.GetBudget(ctx, userID, month)
	if err != nil {
		return Report{}, err
	}

	overall := 0.0
	if budget != nil {
		overall = *budget
	}
	m := core.ComputeMetrics(planned, spent, overall)

	cats := core.SortCategories(m, spent)
	if len(cats) > ReportCategoryLimit {
		cats = cats[:ReportCategoryLimit]
	}
	lines := make([]CategoryLine, 0, len(cats))
	for _, c := range cats {
		lines = append(lines, CategoryLine{
			Category:  c,
			Planned:   planned[c],
			Spent:     spent[c],
			Overspend: m.OverspendByCat[c],
		})
	}

	return Report{
		Month:      month,
		Budget:     budget,
		Metrics:    m,
		Categories: lines,
	}, nil
}
