package enums

import (
	"fmt"
	"strings"
)

// CascadeStrategy decides how a package linked to a deleted transaction is
// settled: either the customer is charged for the hours already used, or every
// lesson booked against the package is removed.
type CascadeStrategy string

const (
	CascadeStrategyChargeUsed       CascadeStrategy = "charge-used"
	CascadeStrategyDeleteAllLessons CascadeStrategy = "delete-all-lessons"
)

var validCascadeStrategies = []CascadeStrategy{
	CascadeStrategyChargeUsed,
	CascadeStrategyDeleteAllLessons,
}

// String implements fmt.Stringer.
func (c CascadeStrategy) String() string {
	return string(c)
}

// IsValid reports whether the value is known. Unknown strategies are rejected
// upstream rather than coerced so a cascade never proceeds ambiguously.
func (c CascadeStrategy) IsValid() bool {
	for _, candidate := range validCascadeStrategies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCascadeStrategy converts raw input into a CascadeStrategy.
func ParseCascadeStrategy(value string) (CascadeStrategy, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCascadeStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cascade strategy %q", value)
}
