package finance

import (
	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/config"
)

// NetRevenueResult is the canonical revenue figure for a period. Net is always
// recomputed from its parts as the final resolution step, never copied from an
// upstream field.
type NetRevenueResult struct {
	Gross            decimal.Decimal `json:"gross"`
	Net              decimal.Decimal `json:"net"`
	Refunds          decimal.Decimal `json:"refunds"`
	Commission       decimal.Decimal `json:"commission"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	Tax              decimal.Decimal `json:"tax"`
	Insurance        decimal.Decimal `json:"insurance"`
	Equipment        decimal.Decimal `json:"equipment"`
	PaymentFee       decimal.Decimal `json:"payment_fee"`
	TransactionCount int             `json:"transaction_count"`
	Source           string          `json:"source"`
	Supported        bool            `json:"supported"`
	Anomalous        bool            `json:"anomalous"`
}

// Estimator backfills expense line items from configured rates when the
// resolved result left them empty.
type Estimator struct {
	cfg config.FinanceConfig
}

// NewEstimator returns an Estimator bound to the operator's finance settings.
func NewEstimator(cfg config.FinanceConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// ApplyConfiguredRates fills any of tax/insurance/equipment/payment fee that
// is still zero or negative. Already-populated fields are left untouched,
// which makes repeated application a no-op.
func (e *Estimator) ApplyConfiguredRates(result NetRevenueResult) NetRevenueResult {
	if result.Tax.LessThanOrEqual(decimal.Zero) && e.cfg.TaxRatePct.IsPositive() {
		result.Tax = ApplyPct(result.Gross, e.cfg.TaxRatePct)
	}
	if result.Insurance.LessThanOrEqual(decimal.Zero) && e.cfg.InsuranceRatePct.IsPositive() {
		result.Insurance = ApplyPct(result.Gross, e.cfg.InsuranceRatePct)
	}
	if result.Equipment.LessThanOrEqual(decimal.Zero) && e.cfg.EquipmentRatePct.IsPositive() {
		result.Equipment = ApplyPct(result.Gross, e.cfg.EquipmentRatePct)
	}

	if result.PaymentFee.LessThanOrEqual(decimal.Zero) {
		if fee, ok := PreferredFee(e.cfg.PaymentFees); ok {
			perTx := fee.Fixed.Mul(decimal.NewFromInt(int64(result.TransactionCount)))
			result.PaymentFee = ApplyPct(result.Gross, fee.Pct).Add(perTx)
		}
	}

	return result
}
