package finance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
)

// Period is the inclusive date range a revenue computation covers.
type Period struct {
	From time.Time
	To   time.Time
}

// LedgerAggregate is the per-service accrual data carried on snapshot rows
// that lack a usable gross total.
type LedgerAggregate struct {
	ExpectedByService map[string]decimal.Decimal
	CommissionTotal   decimal.Decimal
	RefundedTotal     decimal.Decimal
}

// Empty reports whether the aggregate carries nothing usable.
func (a LedgerAggregate) Empty() bool {
	return len(a.ExpectedByService) == 0 && a.CommissionTotal.IsZero()
}

// ExpectedTotal sums the expected amounts across all services.
func (a LedgerAggregate) ExpectedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a.ExpectedByService {
		total = total.Add(v)
	}
	return total
}

// ExpectedFor returns the expected amount for one service type.
func (a LedgerAggregate) ExpectedFor(serviceType enums.ServiceType) decimal.Decimal {
	return a.ExpectedByService[serviceType.String()]
}

// TransactionTotals are the raw completed-transaction sums for a period.
type TransactionTotals struct {
	Gross   decimal.Decimal
	Refunds decimal.Decimal
	Count   int
}

// Repository reads the revenue data sources. Snapshots are produced by the
// external reporting job; this side never writes them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSnapshot(ctx context.Context, period Period, serviceType enums.ServiceType) (*models.ServiceLedgerSnapshot, error)
	FindLedgerAggregate(ctx context.Context, period Period) (LedgerAggregate, error)
	TransactionTotals(ctx context.Context, period Period, serviceType enums.ServiceType) (TransactionTotals, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a finance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSnapshot(ctx context.Context, period Period, serviceType enums.ServiceType) (*models.ServiceLedgerSnapshot, error) {
	query := r.db.WithContext(ctx).
		Where("period_start >= ? AND period_end <= ?", period.From, period.To)
	if serviceType != "" {
		query = query.Where("service_type = ?", serviceType)
	} else {
		query = query.Where("service_type IS NULL")
	}

	var snapshot models.ServiceLedgerSnapshot
	if err := query.Order("period_end DESC").First(&snapshot).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) FindLedgerAggregate(ctx context.Context, period Period) (LedgerAggregate, error) {
	var rows []models.ServiceLedgerSnapshot
	if err := r.db.WithContext(ctx).
		Where("period_start >= ? AND period_end <= ?", period.From, period.To).
		Where("expected_by_service IS NOT NULL").
		Order("period_end ASC").
		Find(&rows).Error; err != nil {
		return LedgerAggregate{}, err
	}

	agg := LedgerAggregate{
		ExpectedByService: map[string]decimal.Decimal{},
		CommissionTotal:   decimal.Zero,
		RefundedTotal:     decimal.Zero,
	}
	for _, row := range rows {
		agg.CommissionTotal = agg.CommissionTotal.Add(row.CommissionTotal)
		agg.RefundedTotal = agg.RefundedTotal.Add(row.RefundedTotal)

		if len(row.ExpectedByService) == 0 {
			continue
		}
		var expected map[string]any
		if err := json.Unmarshal(row.ExpectedByService, &expected); err != nil {
			continue
		}
		for service, raw := range expected {
			agg.ExpectedByService[service] = agg.ExpectedByService[service].Add(ToDecimal(raw))
		}
	}
	return agg, nil
}

func (r *repository) TransactionTotals(ctx context.Context, period Period, serviceType enums.ServiceType) (TransactionTotals, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.Transaction{}).
			Where("status = ?", enums.TransactionStatusCompleted).
			Where("created_at >= ? AND created_at <= ?", period.From, period.To)
		if serviceType != "" {
			q = q.Where("service_type = ?", serviceType)
		}
		return q
	}

	var totals TransactionTotals

	type sumRow struct {
		Total decimal.Decimal
		N     int
	}

	var gross sumRow
	if err := base().
		Where("type <> ?", enums.TransactionTypeRefund).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Scan(&gross).Error; err != nil {
		return totals, err
	}

	var refunds sumRow
	if err := base().
		Where("type = ?", enums.TransactionTypeRefund).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Scan(&refunds).Error; err != nil {
		return totals, err
	}

	totals.Gross = gross.Total
	// refund rows are stored signed; report the magnitude
	totals.Refunds = refunds.Total.Abs()
	totals.Count = gross.N + refunds.N
	return totals, nil
}
