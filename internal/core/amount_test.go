package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.34", 12.34, false},
		{"12,34", 12.34, false},
		{" 7 ", 7, false},
		{"0.01", 0.01, false},
		{"", 0, true},
		{"abc", 0, true},
		{"12.3.4", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmount(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(0.001); !errors.Is(err, ErrAmountTooSmall) {
		t.Errorf("ValidateAmount(0.001) = %v; want ErrAmountTooSmall", err)
	}
	if err := ValidateAmount(-5); !errors.Is(err, ErrAmountTooSmall) {
		t.Errorf("ValidateAmount(-5) = %v; want ErrAmountTooSmall", err)
	}
	if err := ValidateAmount(1_000_000); !errors.Is(err, ErrAmountTooLarge) {
		t.Errorf("ValidateAmount(1e6) = %v; want ErrAmountTooLarge", err)
	}
	if err := ValidateAmount(42.50); err != nil {
		t.Errorf("ValidateAmount(42.50) = %v; want nil", err)
	}
}

func TestValidateCategory(t *testing.T) {
	got, err := ValidateCategory("  Food & Drinks  ")
	if err != nil || got != "Food & Drinks" {
		t.Errorf("ValidateCategory = %q, %v; want trimmed value", got, err)
	}

	if _, err := ValidateCategory("   "); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("blank category: %v; want ErrEmptyCategory", err)
	}
	if _, err := ValidateCategory(strings.Repeat("x", 51)); !errors.Is(err, ErrCategoryTooLong) {
		t.Errorf("long category: %v; want ErrCategoryTooLong", err)
	}
	if _, err := ValidateCategory("a<b"); !errors.Is(err, ErrCategoryBadChars) {
		t.Errorf("markup category: %v; want ErrCategoryBadChars", err)
	}
}

func TestValidateName(t *testing.T) {
	if _, err := ValidateName(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name: %v; want ErrEmptyName", err)
	}
	if _, err := ValidateName(strings.Repeat("x", 101)); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("long name: %v; want ErrNameTooLong", err)
	}
	if _, err := ValidateName("line\nbreak"); !errors.Is(err, ErrNameBadChars) {
		t.Errorf("name with newline: %v; want ErrNameBadChars", err)
	}
	got, err := ValidateName("Taxi to airport")
	if err != nil || got != "Taxi to airport" {
		t.Errorf("ValidateName = %q, %v", got, err)
	}
}
