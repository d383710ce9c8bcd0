package core

// PlannedMonthly expands rules into a per-category monthly plan for the given
// "YYYY-MM" month. Daily rules scale by the month's day count, weekly rules by
// days/7, yearly rules contribute one twelfth.
func PlannedMonthly(rules []Rule, month string) (map[string]float64, float64, error) {
	days, err := DaysInMonth(month)
	if err != nil {
		return nil, 0, err
	}

	planned := make(map[string]float64)
	total := 0.0
	for _, r := range rules {
		var monthly float64
		switch r.Period {
		case PeriodDaily:
			monthly = r.Amount * float64(days)
		case PeriodWeekly:
			monthly = r.Amount * float64(days) / 7.0
		case PeriodMonthly:
			monthly = r.Amount
		case PeriodYearly:
			monthly = r.Amount / 12.0
		default:
			continue
		}
		planned[r.Category] += monthly
		total += monthly
	}
	return planned, total, nil
}
