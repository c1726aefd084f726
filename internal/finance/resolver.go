package finance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/errors"
	"github.com/aydindemir/driftops-backend/pkg/logger"
)

const (
	SourceSnapshot     = "snapshot"
	SourceLedger       = "ledger"
	SourceTransactions = "transactions"
)

// Service resolves the canonical net-revenue figure for a period.
type Service interface {
	ResolveNetRevenue(ctx context.Context, period Period, serviceType enums.ServiceType) (NetRevenueResult, error)
}

type service struct {
	repo      Repository
	estimator *Estimator
	logg      *logger.Logger
}

// NewService wires the ledger resolver.
func NewService(repo Repository, estimator *Estimator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("finance repository required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("estimator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, estimator: estimator, logg: logg}, nil
}

// ResolveNetRevenue merges the three revenue sources in priority order:
// ledger snapshot, per-service ledger aggregate, raw completed transactions.
// Each source is consulted only when the previous one yields nothing usable.
// Expense estimation runs afterward regardless of path, and net is recomputed
// from the parts as the final step.
func (s *service) ResolveNetRevenue(ctx context.Context, period Period, serviceType enums.ServiceType) (NetRevenueResult, error) {
	var result NetRevenueResult

	if period.From.IsZero() || period.To.IsZero() {
		return result, errors.New(errors.CodeValidation, "period bounds are required")
	}
	if period.To.Before(period.From) {
		return result, errors.New(errors.CodeValidation, "period end precedes start")
	}
	if serviceType != "" && !serviceType.IsValid() {
		return result, errors.New(errors.CodeValidation, fmt.Sprintf("unknown service type %q", serviceType))
	}

	// raw totals feed both the last fallback and the per-transaction fixed
	// fee, so they are fetched on every path
	totals, err := s.repo.TransactionTotals(ctx, period, serviceType)
	if err != nil {
		return result, errors.Wrap(errors.CodeDependency, err, "aggregating transactions")
	}

	snapshot, err := s.repo.FindSnapshot(ctx, period, serviceType)
	if err != nil {
		return result, errors.Wrap(errors.CodeDependency, err, "loading ledger snapshot")
	}

	switch {
	case snapshot != nil && (snapshot.GrossTotal.IsPositive() || snapshot.ItemsCount > 0):
		result.Gross = snapshot.GrossTotal
		result.Commission = snapshot.CommissionTotal
		result.CommissionRate = snapshot.CommissionRate
		result.Tax = snapshot.TaxTotal
		result.Insurance = snapshot.InsuranceTotal
		result.Equipment = snapshot.EquipmentTotal
		result.PaymentFee = snapshot.PaymentFeeTotal
		result.Refunds = snapshot.RefundedTotal
		result.TransactionCount = snapshot.ItemsCount
		if result.TransactionCount == 0 {
			result.TransactionCount = totals.Count
		}
		result.Source = SourceSnapshot
		result.Supported = true

	default:
		aggregate, err := s.repo.FindLedgerAggregate(ctx, period)
		if err != nil {
			return result, errors.Wrap(errors.CodeDependency, err, "loading ledger aggregate")
		}

		if !aggregate.Empty() {
			if serviceType != "" {
				result.Gross = aggregate.ExpectedFor(serviceType)
			} else {
				result.Gross = aggregate.ExpectedTotal()
			}
			result.Commission = aggregate.CommissionTotal
			result.Refunds = aggregate.RefundedTotal
			result.TransactionCount = totals.Count
			result.Source = SourceLedger
		} else {
			result.Gross = totals.Gross
			result.Refunds = totals.Refunds
			result.TransactionCount = totals.Count
			result.Source = SourceTransactions
		}
	}

	result = s.estimator.ApplyConfiguredRates(result)

	if result.CommissionRate.IsZero() && !result.Gross.IsZero() && !result.Commission.IsZero() {
		result.CommissionRate = result.Commission.Div(result.Gross).Mul(decimal.NewFromInt(100))
	}
	if result.Gross.IsZero() {
		result.CommissionRate = decimal.Zero
	}

	result.Net = result.Gross.
		Sub(result.Refunds).
		Sub(result.Commission).
		Sub(result.Tax).
		Sub(result.Insurance).
		Sub(result.Equipment).
		Sub(result.PaymentFee)

	// negative net and refunds above gross pass through unclamped, but are
	// flagged so callers can distinguish a real overpayment from bad data
	result.Anomalous = result.Net.IsNegative() || result.Refunds.GreaterThan(result.Gross)

	if result.Anomalous {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"gross":   result.Gross.String(),
			"net":     result.Net.String(),
			"refunds": result.Refunds.String(),
			"source":  result.Source,
		}), "net revenue result is anomalous")
	}

	return result, nil
}
