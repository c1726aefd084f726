package enums

import (
	"fmt"
	"strings"
)

// PackageStatus tracks an hour-package entitlement.
type PackageStatus string

const (
	PackageStatusActive    PackageStatus = "active"
	PackageStatusExhausted PackageStatus = "exhausted"
	PackageStatusExpired   PackageStatus = "expired"
	PackageStatusCancelled PackageStatus = "cancelled"
)

var validPackageStatuses = []PackageStatus{
	PackageStatusActive,
	PackageStatusExhausted,
	PackageStatusExpired,
	PackageStatusCancelled,
}

// String implements fmt.Stringer.
func (p PackageStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PackageStatus) IsValid() bool {
	for _, candidate := range validPackageStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePackageStatus converts raw input into a PackageStatus.
func ParsePackageStatus(value string) (PackageStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPackageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package status %q", value)
}
