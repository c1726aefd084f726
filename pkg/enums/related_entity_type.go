package enums

import (
	"fmt"
	"strings"
)

// RelatedEntityType names the entity a transaction funded.
type RelatedEntityType string

const (
	RelatedEntityBooking RelatedEntityType = "booking"
	RelatedEntityPackage RelatedEntityType = "package"
	RelatedEntityRental  RelatedEntityType = "rental"
)

var validRelatedEntityTypes = []RelatedEntityType{
	RelatedEntityBooking,
	RelatedEntityPackage,
	RelatedEntityRental,
}

// String implements fmt.Stringer.
func (r RelatedEntityType) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RelatedEntityType) IsValid() bool {
	for _, candidate := range validRelatedEntityTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRelatedEntityType converts raw input into a RelatedEntityType.
func ParseRelatedEntityType(value string) (RelatedEntityType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRelatedEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid related entity type %q", value)
}
