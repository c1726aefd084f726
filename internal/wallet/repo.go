package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// LedgerTotals are the recomputed wallet figures derived from the remaining
// transaction rows.
type LedgerTotals struct {
	Balance       decimal.Decimal
	LifetimeValue decimal.Decimal
	LastPaymentAt *time.Time
}

// Repository handles wallet persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	LedgerTotals(ctx context.Context, customerID uuid.UUID) (LedgerTotals, error)
	Upsert(ctx context.Context, wallet *models.Wallet) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&wallet).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) LedgerTotals(ctx context.Context, customerID uuid.UUID) (LedgerTotals, error) {
	var totals LedgerTotals

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.Transaction{}).
			Where("customer_id = ?", customerID).
			Where("status = ?", enums.TransactionStatusCompleted)
	}

	// reversal rows are audit markers for entries the coordinator removed;
	// counting them would double the removal's effect
	var balance struct{ Total decimal.Decimal }
	if err := base().
		Where("type <> ?", enums.TransactionTypeReversal).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&balance).Error; err != nil {
		return totals, err
	}

	var lifetime struct{ Total decimal.Decimal }
	if err := base().
		Where("type = ?", enums.TransactionTypePayment).
		Where("amount > 0").
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&lifetime).Error; err != nil {
		return totals, err
	}

	var lastPayment models.Transaction
	err := base().
		Where("type = ?", enums.TransactionTypePayment).
		Where("amount > 0").
		Order("created_at DESC").
		First(&lastPayment).Error
	switch {
	case err == nil:
		totals.LastPaymentAt = &lastPayment.CreatedAt
	case err == gorm.ErrRecordNotFound:
		// no payments yet
	default:
		return totals, err
	}

	totals.Balance = balance.Total
	totals.LifetimeValue = lifetime.Total
	return totals, nil
}

func (r *repository) Upsert(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_balance", "lifetime_value", "last_payment_at", "updated_at",
			}),
		}).
		Create(wallet).Error
}
