package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// CustomerPackage is a prepaid block of lesson hours. The typed columns hold
// the values the operator's own flows write; Raw preserves the upstream record
// as imported (legacy camelCase, snake_case and nested usageSummary shapes),
// and the usage extractor is the only reader allowed to interpret it.
type CustomerPackage struct {
	ID                   uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Name                 string              `gorm:"column:name;not null"`
	TotalHours           float64             `gorm:"column:total_hours;not null;default:0"`
	UsedHours            float64             `gorm:"column:used_hours;not null;default:0"`
	RemainingHours       *float64            `gorm:"column:remaining_hours"`
	PurchasePrice        decimal.Decimal     `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	Currency             string              `gorm:"column:currency;not null;default:'EUR'"`
	Status               enums.PackageStatus `gorm:"column:status;type:package_status;not null;default:'active'"`
	PaymentTransactionID *uuid.UUID          `gorm:"column:payment_transaction_id;type:uuid;index"`
	Raw                  json.RawMessage     `gorm:"column:raw;type:jsonb"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
