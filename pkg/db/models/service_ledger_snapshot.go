package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// ServiceLedgerSnapshot is a precomputed accrual record for a period, produced
// by the external reporting job. This service only ever reads it; a snapshot
// with a positive gross total (or a non-zero item count) is the authoritative
// revenue source for its period.
type ServiceLedgerSnapshot struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PeriodStart       time.Time          `gorm:"column:period_start;not null;index:idx_ledger_snapshots_period"`
	PeriodEnd         time.Time          `gorm:"column:period_end;not null;index:idx_ledger_snapshots_period"`
	ServiceType       *enums.ServiceType `gorm:"column:service_type;type:service_type"`
	GrossTotal        decimal.Decimal    `gorm:"column:gross_total;type:numeric(14,2);not null;default:0"`
	NetTotal          decimal.Decimal    `gorm:"column:net_total;type:numeric(14,2);not null;default:0"`
	CommissionTotal   decimal.Decimal    `gorm:"column:commission_total;type:numeric(14,2);not null;default:0"`
	CommissionRate    decimal.Decimal    `gorm:"column:commission_rate;type:numeric(7,4);not null;default:0"`
	TaxTotal          decimal.Decimal    `gorm:"column:tax_total;type:numeric(14,2);not null;default:0"`
	InsuranceTotal    decimal.Decimal    `gorm:"column:insurance_total;type:numeric(14,2);not null;default:0"`
	EquipmentTotal    decimal.Decimal    `gorm:"column:equipment_total;type:numeric(14,2);not null;default:0"`
	PaymentFeeTotal   decimal.Decimal    `gorm:"column:payment_fee_total;type:numeric(14,2);not null;default:0"`
	RefundedTotal     decimal.Decimal    `gorm:"column:refunded_total;type:numeric(14,2);not null;default:0"`
	ItemsCount        int                `gorm:"column:items_count;not null;default:0"`
	ExpectedByService json.RawMessage    `gorm:"column:expected_by_service;type:jsonb"`
	CountsByService   json.RawMessage    `gorm:"column:counts_by_service;type:jsonb"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
}
