package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// Transaction is a signed wallet ledger entry in the base currency. A settled
// transaction is immutable; it leaves the ledger only through the deletion
// coordinator, which replaces its financial effect with a reversal row unless
// a hard delete was requested.
type Transaction struct {
	ID                    uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID            uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index"`
	Amount                decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency              string                  `gorm:"column:currency;not null;default:'EUR'"`
	Type                  enums.TransactionType   `gorm:"column:type;type:transaction_type;not null"`
	Status                enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'completed'"`
	PaymentMethod         *enums.PaymentMethod    `gorm:"column:payment_method;type:payment_method"`
	ServiceType           *enums.ServiceType      `gorm:"column:service_type;type:service_type"`
	RelatedEntityID       *uuid.UUID              `gorm:"column:related_entity_id;type:uuid;index"`
	RelatedEntityType     *enums.RelatedEntityType `gorm:"column:related_entity_type;type:related_entity_type"`
	ReversesTransactionID *uuid.UUID              `gorm:"column:reverses_transaction_id;type:uuid"`
	Description           *string                 `gorm:"column:description"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRefund reports whether the entry reduces revenue.
func (t Transaction) IsRefund() bool {
	return t.Type == enums.TransactionTypeRefund
}
