// Package core holds the domain types and the pure budget arithmetic.
package core

import "time"

// Period is the recurrence of a spending rule.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Rule is a recurring spending plan entry. Amount is in the base currency.
type Rule struct {
	ID       int64
	UserID   int64
	Category string
	Name     string
	Period   Period
	Amount   float64
}

// Expense is a single logged expense. BaseAmount is the amount converted to
// the base currency; OriginalAmount and Currency record what the user entered.
type Expense struct {
	ID             int64
	UserID         int64
	Month          string // "YYYY-MM"
	Category       string
	Name           string
	BaseAmount     float64
	Currency       string
	OriginalAmount float64
	FXRate         float64
	FXDate         string // "YYYY-MM-DD"
	CreatedAt      time.Time
}

// ExchangeRate is an immutable conversion fact keyed by (Date, From, To).
type ExchangeRate struct {
	Date string // "YYYY-MM-DD", the day the lookup was performed
	From string
	To   string
	Rate float64
}

// BudgetMetrics aggregates a month's plan against its spend. Derived on every
// report request, never persisted.
type BudgetMetrics struct {
	OverallBudget    float64
	PlannedTotal     float64
	SpentTotal       float64
	OverspendTotal   float64
	RemainingOverall float64
	UnplannedSpent   float64
	OverspendByCat   map[string]float64
}
