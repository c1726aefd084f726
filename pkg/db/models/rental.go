package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// Rental is an equipment hire for a date range.
type Rental struct {
	ID                   uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	Equipment            string             `gorm:"column:equipment;not null"`
	StartDate            time.Time          `gorm:"column:start_date;not null"`
	EndDate              time.Time          `gorm:"column:end_date;not null"`
	TotalPrice           decimal.Decimal    `gorm:"column:total_price;type:numeric(12,2);not null"`
	Currency             string             `gorm:"column:currency;not null;default:'EUR'"`
	Status               enums.RentalStatus `gorm:"column:status;type:rental_status;not null;default:'reserved'"`
	PaymentTransactionID *uuid.UUID         `gorm:"column:payment_transaction_id;type:uuid;index"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
