package enums

import (
	"fmt"
	"strings"
)

// ServiceType partitions revenue by business line.
type ServiceType string

const (
	ServiceTypeLessons  ServiceType = "lessons"
	ServiceTypeRentals  ServiceType = "rentals"
	ServiceTypePackages ServiceType = "packages"
)

var validServiceTypes = []ServiceType{
	ServiceTypeLessons,
	ServiceTypeRentals,
	ServiceTypePackages,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType. An empty value is
// returned as-is; revenue queries treat it as "all services".
func ParseServiceType(value string) (ServiceType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}
