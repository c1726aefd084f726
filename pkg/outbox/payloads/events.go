package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SlotReleasedEvent tells the scheduling surface a lesson slot opened up
// because its booking was removed in a cascade.
type SlotReleasedEvent struct {
	BookingID    uuid.UUID  `json:"booking_id"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	InstructorID *uuid.UUID `json:"instructor_id,omitempty"`
	StartsAt     time.Time  `json:"starts_at"`
	Reason       string     `json:"reason,omitempty"`
}

// EquipmentFreedEvent announces an equipment rental was removed.
type EquipmentFreedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Equipment  string    `json:"equipment"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// PackageLessonsDeletedEvent reports the delete-all-lessons disposition of a
// package during a cascade.
type PackageLessonsDeletedEvent struct {
	PackageID       uuid.UUID   `json:"package_id"`
	CustomerID      uuid.UUID   `json:"customer_id"`
	DeletedBookings []uuid.UUID `json:"deleted_bookings"`
}

// PackageChargedUsedEvent reports the charge-used disposition of a package.
type PackageChargedUsedEvent struct {
	PackageID     uuid.UUID       `json:"package_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	UsedHours     float64         `json:"used_hours"`
	ChargedAmount decimal.Decimal `json:"charged_amount"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}

// TransactionReversedEvent records that a deleted transaction was offset by a
// reversal row.
type TransactionReversedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	ReversalID    uuid.UUID       `json:"reversal_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

// TransactionHardDeletedEvent records a permanent removal with no reversal.
type TransactionHardDeletedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

// WalletResyncedEvent reports a recomputed wallet.
type WalletResyncedEvent struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	LifetimeValue  decimal.Decimal `json:"lifetime_value"`
}
