package core

// AlertKind identifies the budget condition an alert reports.
type AlertKind string

const (
	AlertCategoryExceeded AlertKind = "category_exceeded"
	AlertBudgetExceeded   AlertKind = "budget_exceeded"
	AlertLowBudget        AlertKind = "low_budget"
)

// LowBudgetFraction is the remaining-budget fraction below which the
// low-budget warning fires.
const LowBudgetFraction = 0.10

// Alert is one threshold crossing caused by a specific add operation.
type Alert struct {
	Kind      AlertKind
	Category  string  // set for AlertCategoryExceeded
	Planned   float64 // category plan for AlertCategoryExceeded
	Spent     float64 // category spend for AlertCategoryExceeded
	Remaining float64 // category remaining, or overall remaining for budget alerts
}

// AlertCheck carries the before/after snapshots around a single add.
type AlertCheck struct {
	Category string

	PrevPlanned map[string]float64
	PrevSpent   map[string]float64
	NewPlanned  map[string]float64
	NewSpent    map[string]float64

	// Budget is nil when no monthly budget is set.
	Budget       *float64
	PlannedTotal float64
}

// CheckAlertsAfterAdd compares the state before and after an add and returns
// the alerts whose condition was entered by that add. Every check is
// edge-triggered: a value that was already in the alerting range before the
// add produces nothing.
func CheckAlertsAfterAdd(in AlertCheck) []Alert {
	var alerts []Alert

	// Category crossing. Unplanned categories (planned == 0) never fire.
	p := in.PrevPlanned[in.Category]
	prevRemaining := p - in.PrevSpent[in.Category]
	newRemaining := p - in.NewSpent[in.Category]
	if p > 0 && prevRemaining >= 0 && newRemaining < 0 {
		alerts = append(alerts, Alert{
			Kind:      AlertCategoryExceeded,
			Category:  in.Category,
			Planned:   p,
			Spent:     in.NewSpent[in.Category],
			Remaining: newRemaining,
		})
	}

	if in.Budget == nil {
		return alerts
	}
	budget := *in.Budget

	prevOverall, _ := RemainingOverall(budget, in.PlannedTotal, in.PrevPlanned, in.PrevSpent)
	newOverall, _ := RemainingOverall(budget, in.PlannedTotal, in.NewPlanned, in.NewSpent)

	if prevOverall >= 0 && newOverall < 0 {
		alerts = append(alerts, Alert{
			Kind:      AlertBudgetExceeded,
			Remaining: newOverall,
		})
	}

	// Warn when remaining drops under 10% of the budget but is still
	// non-negative. The band is disjoint from the exceeded alert.
	if budget > 0 {
		threshold := LowBudgetFraction * budget
		if prevOverall >= threshold && newOverall < threshold && newOverall >= 0 {
			alerts = append(alerts, Alert{
				Kind:      AlertLowBudget,
				Remaining: newOverall,
			})
		}
	}

	return alerts
}
