package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// Booking is a scheduled lesson slot. It may consume hours from a
// CustomerPackage and may be funded by a Transaction; both links are optional
// and independent.
type Booking struct {
	ID                   uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ServiceName          string              `gorm:"column:service_name;not null"`
	ServiceType          enums.ServiceType   `gorm:"column:service_type;type:service_type;not null;default:'lessons'"`
	StartsAt             time.Time           `gorm:"column:starts_at;not null;index"`
	DurationHours        float64             `gorm:"column:duration_hours;not null;default:1"`
	Status               enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'scheduled'"`
	InstructorID         *uuid.UUID          `gorm:"column:instructor_id;type:uuid"`
	PackageID            *uuid.UUID          `gorm:"column:package_id;type:uuid;index"`
	PaymentTransactionID *uuid.UUID          `gorm:"column:payment_transaction_id;type:uuid;index"`
	Notes                *string             `gorm:"column:notes"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
