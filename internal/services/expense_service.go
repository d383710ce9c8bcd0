package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/metrics"
	"budgetbot/internal/storage"
)

// ExpenseService logs expenses, converting foreign amounts to the base
// currency and firing edge-triggered budget alerts.
type ExpenseService struct {
	storage      *storage.SQLiteRepository
	resolver     RateResolver
	publisher    SyncPublisher // nil disables sync events
	logger       *log.Logger
	metrics      *metrics.Metrics // nil disables counters
	baseCurrency string

	now func() time.Time
}

func NewExpenseService(st *storage.SQLiteRepository, resolver RateResolver, publisher SyncPublisher, baseCurrency string, logger *log.Logger, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{
		storage:      st,
		resolver:     resolver,
		publisher:    publisher,
		logger:       logger.WithComponent(log.ComponentApp),
		metrics:      m,
		baseCurrency: strings.ToUpper(baseCurrency),
		now:          time.Now,
	}
}

// AddInput is one expense as entered by the user. An empty Currency means
// the base currency.
type AddInput struct {
	UserID   int64
	Category string
	Name     string
	Amount   float64
	Currency string
}

// AddResult is the stored expense plus any alerts the add triggered.
type AddResult struct {
	Expense core.Expense
	Alerts  []core.Alert
}

// Add validates, converts and stores one expense for the current month.
// An FX failure aborts the add with no row written. A failed sync publish
// does not: the row stays and the worker's sweep picks it up later.
func (s *ExpenseService) Add(ctx context.Context, in AddInput) (AddResult, error) {
	category, err := core.ValidateCategory(in.Category)
	if err != nil {
		return AddResult{}, err
	}
	name, err := core.ValidateName(in.Name)
	if err != nil {
		return AddResult{}, err
	}
	if err := core.ValidateAmount(in.Amount); err != nil {
		return AddResult{}, err
	}

	now := s.now()
	month := core.MonthKey(now)

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.baseCurrency
	}

	fxDate := core.DayKey(now)
	rate := 1.0
	if currency != s.baseCurrency {
		fxDate, rate, err = s.resolver.Resolve(ctx, currency, s.baseCurrency)
		if err != nil {
			return AddResult{}, err
		}
	}
	baseAmount := in.Amount * rate

	// Snapshot plan and spend before the insert so alerts fire only on the
	// crossing this add causes.
	rules, err := s.storage.ListRules(ctx, in.UserID)
	if err != nil {
		return AddResult{}, fmt.Errorf("list rules: %w", err)
	}
	planned, plannedTotal, err := core.PlannedMonthly(rules, month)
	if err != nil {
		return AddResult{}, err
	}
	prevSpent, _, err := s.storage.SpentByCategory(ctx, in.UserID, month)
	if err != nil {
		return AddResult{}, fmt.Errorf("spent by category: %w", err)
	}

	expense := core.Expense{
		UserID:         in.UserID,
		Month:          month,
		Category:       category,
		Name:           name,
		BaseAmount:     baseAmount,
		Currency:       currency,
		OriginalAmount: in.Amount,
		FXRate:         rate,
		FXDate:         fxDate,
		CreatedAt:      now,
	}
	id, err := s.storage.InsertExpense(ctx, expense)
	if err != nil {
		return AddResult{}, err
	}
	expense.ID = id

	newSpent := make(map[string]float64, len(prevSpent)+1)
	for c, v := range prevSpent {
		newSpent[c] = v
	}
	newSpent[category] += baseAmount

	budget, err := s.storage.GetBudget(ctx, in.UserID, month)
	if err != nil {
		return AddResult{}, err
	}

	alerts := core.CheckAlertsAfterAdd(core.AlertCheck{
		Category:     category,
		PrevPlanned:  planned,
		PrevSpent:    prevSpent,
		NewPlanned:   planned,
		NewSpent:     newSpent,
		Budget:       budget,
		PlannedTotal: plannedTotal,
	})
	if s.metrics != nil {
		for _, a := range alerts {
			s.metrics.AlertsTotal.WithLabelValues(string(a.Kind)).Inc()
		}
	}

	s.logger.InfoContext(ctx, "expense added",
		log.FieldUserID, in.UserID,
		log.FieldExpenseID, id,
		log.FieldMonth, month,
		log.FieldCategory, category,
		log.FieldAmount, baseAmount,
		log.FieldCurrency, currency)

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseSync(ctx, id, in.UserID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish sync message",
				log.FieldExpenseID, id, log.FieldError, err)
		}
	}

	return AddResult{Expense: expense, Alerts: alerts}, nil
}

// Undo removes the user's most recent expense of the current month.
// Returns storage.ErrNotFound when the month has no expenses.
func (s *ExpenseService) Undo(ctx context.Context, userID int64) (core.Expense, error) {
	month := core.MonthKey(s.now())
	e, err := s.storage.DeleteLastExpense(ctx, userID, month)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "expense undone",
		log.FieldUserID, userID, log.FieldExpenseID, e.ID)
	return e, nil
}

// ResetMonth deletes all of the user's expenses for the current month and
// returns how many were removed.
func (s *ExpenseService) ResetMonth(ctx context.Context, userID int64) (int64, error) {
	month := core.MonthKey(s.now())
	n, err := s.storage.ResetMonthExpenses(ctx, userID, month)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "month reset",
		log.FieldUserID, userID, log.FieldMonth, month, "deleted", n)
	return n, nil
}

// ResetAll wipes everything stored for the user.
func (s *ExpenseService) ResetAll(ctx context.Context, userID int64) error {
	if err := s.storage.ResetAllUserData(ctx, userID); err != nil {
		return err
	}
	s.logger.WarnContext(ctx, "all user data reset", log.FieldUserID, userID)
	return nil
}
