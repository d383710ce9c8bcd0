package core

import "sort"

// OverspendTotal sums, over the union of categories in either map, how far
// spending exceeds the plan. Categories under plan contribute nothing.
func OverspendTotal(planned, spent map[string]float64) float64 {
	total := 0.0
	for c := range unionKeys(planned, spent) {
		if over := spent[c] - planned[c]; over > 0 {
			total += over
		}
	}
	return total
}

// UnplannedSpend sums spending in categories with no planned amount.
func UnplannedSpend(planned, spent map[string]float64) float64 {
	total := 0.0
	for c, s := range spent {
		if planned[c] == 0 {
			total += s
		}
	}
	return total
}

// RemainingOverall returns what is left of the budget after reserving the
// full plan and the overspend beyond it, alongside the overspend total.
//
//	remaining = budget − plannedTotal − Σ max(0, spent_c − planned_c)
func RemainingOverall(budget, plannedTotal float64, planned, spent map[string]float64) (remaining, overspend float64) {
	overspend = OverspendTotal(planned, spent)
	return budget - plannedTotal - overspend, overspend
}

// ComputeMetrics derives the full set of budget metrics from a plan map, a
// spend map and the overall budget.
func ComputeMetrics(planned, spent map[string]float64, budget float64) BudgetMetrics {
	m := BudgetMetrics{
		OverallBudget:  budget,
		OverspendByCat: make(map[string]float64),
	}

	for _, p := range planned {
		m.PlannedTotal += p
	}
	for _, s := range spent {
		m.SpentTotal += s
	}

	for c := range unionKeys(planned, spent) {
		over := spent[c] - planned[c]
		if over < 0 {
			over = 0
		}
		m.OverspendByCat[c] = over
		m.OverspendTotal += over
	}

	m.RemainingOverall = budget - m.PlannedTotal - m.OverspendTotal
	m.UnplannedSpent = UnplannedSpend(planned, spent)
	return m
}

// SortCategories orders categories by overspend desc, then spent desc, then
// name asc. Used for report rendering.
func SortCategories(m BudgetMetrics, spent map[string]float64) []string {
	cats := make([]string, 0, len(m.OverspendByCat))
	for c := range m.OverspendByCat {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		a, b := cats[i], cats[j]
		if m.OverspendByCat[a] != m.OverspendByCat[b] {
			return m.OverspendByCat[a] > m.OverspendByCat[b]
		}
		if spent[a] != spent[b] {
			return spent[a] > spent[b]
		}
		return a < b
	})
	return cats
}

func unionKeys(a, b map[string]float64) map[string]struct{} {
	u := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		u[k] = struct{}{}
	}
	for k := range b {
		u[k] = struct{}{}
	}
	return u
}
