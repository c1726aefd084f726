package enums

import (
	"fmt"
	"strings"
)

// RentalStatus tracks equipment rentals.
type RentalStatus string

const (
	RentalStatusReserved  RentalStatus = "reserved"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusReturned  RentalStatus = "returned"
	RentalStatusCancelled RentalStatus = "cancelled"
)

var validRentalStatuses = []RentalStatus{
	RentalStatusReserved,
	RentalStatusActive,
	RentalStatusReturned,
	RentalStatusCancelled,
}

// String implements fmt.Stringer.
func (r RentalStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RentalStatus) IsValid() bool {
	for _, candidate := range validRentalStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentalStatus converts raw input into a RentalStatus.
func ParseRentalStatus(value string) (RentalStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRentalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental status %q", value)
}
