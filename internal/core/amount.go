package core

import (
	"errors"
	"strconv"
	"strings"
)

// Validation constraints for user-supplied values.
const (
	AmountMin = 0.01
	AmountMax = 999_999.99

	CategoryMaxLength = 50
	NameMaxLength     = 100
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountTooSmall   = errors.New("amount too small")
	ErrAmountTooLarge   = errors.New("amount too large")
	ErrEmptyCategory    = errors.New("category is empty")
	ErrCategoryTooLong  = errors.New("category too long")
	ErrCategoryBadChars = errors.New("category contains forbidden characters")
	ErrEmptyName        = errors.New("name is empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrNameBadChars     = errors.New("name contains forbidden characters")
)

const categoryForbidden = `<>"'/\|` + "\n\r\t"
const nameForbidden = "\n\r\t"

// ParseAmount parses a positive decimal amount, accepting both dot and comma
// as the decimal separator.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ValidateAmount checks an amount is within the accepted range.
func ValidateAmount(v float64) error {
	if v < AmountMin {
		return ErrAmountTooSmall
	}
	if v > AmountMax {
		return ErrAmountTooLarge
	}
	return nil
}

// ValidateCategory trims and checks a category name.
func ValidateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", ErrEmptyCategory
	}
	if len(category) > CategoryMaxLength {
		return "", ErrCategoryTooLong
	}
	if strings.ContainsAny(category, categoryForbidden) {
		return "", ErrCategoryBadChars
	}
	return category, nil
}

// ValidateName trims and checks an expense or rule name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > NameMaxLength {
		return "", ErrNameTooLong
	}
	if strings.ContainsAny(name, nameForbidden) {
		return "", ErrNameBadChars
	}
	return name, nil
}
