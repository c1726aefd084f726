package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the customer's account balance. CurrentBalance and LifetimeValue
// are derived figures: the balance sync engine is the only writer, and it
// always recomputes them from the transaction ledger rather than applying
// deltas.
type Wallet struct {
	CustomerID     uuid.UUID       `gorm:"column:customer_id;type:uuid;primaryKey"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:numeric(12,2);not null;default:0"`
	LifetimeValue  decimal.Decimal `gorm:"column:lifetime_value;type:numeric(12,2);not null;default:0"`
	Currency       string          `gorm:"column:currency;not null;default:'EUR'"`
	LastPaymentAt  *time.Time      `gorm:"column:last_payment_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
