package core

import "testing"

func budgetPtr(v float64) *float64 { return &v }

func findAlert(alerts []Alert, kind AlertKind) *Alert {
	for i := range alerts {
		if alerts[i].Kind == kind {
			return &alerts[i]
		}
	}
	return nil
}

func TestCategoryExceededFiresOnCrossing(t *testing.T) {
	planned := map[string]float64{"Food": 100}

	alerts := CheckAlertsAfterAdd(AlertCheck{
		Category:    "Food",
		PrevPlanned: planned,
		PrevSpent:   map[string]float64{"Food": 90}, // remaining 10
		NewPlanned:  planned,
		NewSpent:    map[string]float64{"Food": 150}, // remaining -50
	})

	a := findAlert(alerts, AlertCategoryExceeded)
	if a == nil {
		t.Fatal("expected category exceeded alert on crossing")
	}
	if a.Category != "Food" || a.Remaining != -50 {
		t.Errorf("alert = %+v; want Food with remaining -50", a)
	}
}

func TestCategoryExceededDoesNotRefire(t *testing.T) {
	planned := map[string]float64{"Food": 100}

	// Already negative before the add: no new alert.
	alerts := CheckAlertsAfterAdd(AlertCheck{
		Category:    "Food",
		PrevPlanned: planned,
		PrevSpent:   map[string]float64{"Food": 150},
		NewPlanned:  planned,
		NewSpent:    map[string]float64{"Food": 200},
	})

	if findAlert(alerts, AlertCategoryExceeded) != nil {
		t.Error("category alert must not fire when already exceeded before the add")
	}
}

func TestUnplannedCategoryNeverFires(t *testing.T) {
	alerts := CheckAlertsAfterAdd(AlertCheck{
		Category:    "Travel",
		PrevPlanned: map[string]float64{},
		PrevSpent:   map[string]float64{},
		NewPlanned:  map[string]float64{},
		NewSpent:    map[string]float64{"Travel": 500},
	})

	if findAlert(alerts, AlertCategoryExceeded) != nil {
		t.Error("category alert must not fire for a category with no plan")
	}
}

func TestOverallBudgetExceededCrossing(t *testing.T) {
	planned := map[string]float64{"Food": 100}

	check := AlertCheck{
		Category:     "Food",
		PrevPlanned:  planned,
		PrevSpent:    map[string]float64{"Food": 90},
		NewPlanned:   planned,
		NewSpent:     map[string]float64{"Food": 300},
		Budget:       budgetPtr(250),
		PlannedTotal: 100,
	}

	// prev overall: 250-100-0 = 150; new overall: 250-100-200 = -50.
	alerts := CheckAlertsAfterAdd(check)
	a := findAlert(alerts, AlertBudgetExceeded)
	if a == nil {
		t.Fatal("expected overall budget exceeded alert")
	}
	if a.Remaining != -50 {
		t.Errorf("Remaining = %v; want -50", a.Remaining)
	}

	// Same spend again: already negative, no re-fire.
	check.PrevSpent = map[string]float64{"Food": 300}
	check.NewSpent = map[string]float64{"Food": 350}
	if findAlert(CheckAlertsAfterAdd(check), AlertBudgetExceeded) != nil {
		t.Error("budget alert must not fire when already exceeded before the add")
	}
}

func TestNoBudgetNoOverallAlerts(t *testing.T) {
	planned := map[string]float64{"Food": 10}
	alerts := CheckAlertsAfterAdd(AlertCheck{
		Category:    "Food",
		PrevPlanned: planned,
		PrevSpent:   map[string]float64{},
		NewPlanned:  planned,
		NewSpent:    map[string]float64{"Food": 10000},
	})

	if findAlert(alerts, AlertBudgetExceeded) != nil || findAlert(alerts, AlertLowBudget) != nil {
		t.Error("overall alerts require a budget to be set")
	}
}

func TestLowBudgetWarningBand(t *testing.T) {
	planned := map[string]float64{"Food": 100}
	budget := budgetPtr(1000) // threshold at 100

	check := AlertCheck{
		Category:     "Food",
		PrevPlanned:  planned,
		PrevSpent:    map[string]float64{"Food": 700}, // overall 1000-100-600 = 300
		NewPlanned:   planned,
		NewSpent:     map[string]float64{"Food": 950}, // overall 1000-100-850 = 50
		Budget:       budget,
		PlannedTotal: 100,
	}

	alerts := CheckAlertsAfterAdd(check)
	a := findAlert(alerts, AlertLowBudget)
	if a == nil {
		t.Fatal("expected low-budget warning when crossing the 10% threshold")
	}
	if a.Remaining != 50 {
		t.Errorf("Remaining = %v; want 50", a.Remaining)
	}
	if findAlert(alerts, AlertBudgetExceeded) != nil {
		t.Error("remaining is still non-negative, exceeded alert must not fire")
	}

	// Jumping straight past zero fires exceeded, not the warning.
	check.PrevSpent = map[string]float64{"Food": 700}
	check.NewSpent = map[string]float64{"Food": 1200} // overall 1000-100-1100 = -200
	alerts = CheckAlertsAfterAdd(check)
	if findAlert(alerts, AlertLowBudget) != nil {
		t.Error("warning band excludes negative remaining")
	}
	if findAlert(alerts, AlertBudgetExceeded) == nil {
		t.Error("expected exceeded alert when crossing below zero")
	}

	// Already inside the warning band: no re-fire.
	check.PrevSpent = map[string]float64{"Food": 950}
	check.NewSpent = map[string]float64{"Food": 960}
	if findAlert(CheckAlertsAfterAdd(check), AlertLowBudget) != nil {
		t.Error("warning must not fire when already inside the band")
	}
}
