package bot

import (
	"fmt"
	"strings"

	"budgetbot/internal/core"
	"budgetbot/internal/services"
)

func formatRules(rules []core.Rule) string {
	if len(rules) == 0 {
		return "No rules yet. Add one with /setdaily, /setweekly, /setmonthly or /setyearly."
	}
	var b strings.Builder
	b.WriteString("Your rules:\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "#%d %s / %s: %.2f %s\n", r.ID, r.Category, r.Name, r.Amount, r.Period)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatReport(r services.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n", r.Month)

	m := r.Metrics
	if r.Budget != nil {
		fmt.Fprintf(&b, "Budget: %.2f | Remaining: %.2f\n", *r.Budget, m.RemainingOverall)
	} else {
		b.WriteString("No budget set. Use /setbudget.\n")
	}
	fmt.Fprintf(&b, "Planned: %.2f | Spent: %.2f\n", m.PlannedTotal, m.SpentTotal)
	if m.OverspendTotal > 0 {
		fmt.Fprintf(&b, "Overspend: %.2f\n", m.OverspendTotal)
	}
	if m.UnplannedSpent > 0 {
		fmt.Fprintf(&b, "Unplanned spending: %.2f\n", m.UnplannedSpent)
	}

	if len(r.Categories) > 0 {
		b.WriteString("\nBy category:\n")
		for _, c := range r.Categories {
			fmt.Fprintf(&b, "%s: %.2f spent", c.Category, c.Spent)
			if c.Planned > 0 {
				fmt.Fprintf(&b, " of %.2f planned", c.Planned)
			}
			if c.Overspend > 0 {
				fmt.Fprintf(&b, " (over by %.2f)", c.Overspend)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAlerts(alerts []core.Alert) string {
	var lines []string
	for _, a := range alerts {
		switch a.Kind {
		case core.AlertCategoryExceeded:
			lines = append(lines, fmt.Sprintf("⚠️ %s is over plan: %.2f spent of %.2f.", a.Category, a.Spent, a.Planned))
		case core.AlertBudgetExceeded:
			lines = append(lines, fmt.Sprintf("🚨 Monthly budget exceeded, remaining %.2f.", a.Remaining))
		case core.AlertLowBudget:
			lines = append(lines, fmt.Sprintf("⚠️ Budget running low: %.2f left.", a.Remaining))
		}
	}
	return strings.Join(lines, "\n")
}
