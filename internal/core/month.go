package core

import (
	"fmt"
	"time"
)

// MonthKey formats t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// DayKey formats t as "YYYY-MM-DD".
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseMonth validates a "YYYY-MM" month key.
func ParseMonth(s string) (string, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthKey(t), nil
}

// DaysInMonth returns the number of calendar days in a "YYYY-MM" month.
func DaysInMonth(month string) (int, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: want YYYY-MM", month)
	}
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day(), nil
}
