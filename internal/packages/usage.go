package packages

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/internal/finance"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
)

// Usage is the canonical view of a package's consumption. All monetary and
// hour figures are resolved once here; callers never read the raw record.
type Usage struct {
	TotalHours      float64         `json:"total_hours"`
	UsedHours       float64         `json:"used_hours"`
	RemainingHours  float64         `json:"remaining_hours"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	PricePerHour    decimal.Decimal `json:"price_per_hour"`
	UsedAmount      decimal.Decimal `json:"used_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// hoursTolerance bounds the float drift accepted before the extractor
// recomputes a remaining-hours figure instead of trusting it.
const hoursTolerance = 1e-6

// ExtractUsage normalizes a package record into a Usage. Imported records
// arrive in several shapes (camelCase, snake_case, a nested usageSummary
// object); resolution order per field is raw camelCase, raw snake_case,
// usageSummary equivalent, typed column, computed fallback. Coercion failures
// resolve to zero.
func ExtractUsage(pkg *models.CustomerPackage) Usage {
	var usage Usage
	if pkg == nil {
		return usage
	}

	raw := rawFields(pkg.Raw)
	summary := nestedSummary(raw)

	usage.TotalHours = resolveHours(raw, summary,
		[]string{"totalHours", "total_hours"}, []string{"totalHours", "total_hours", "total"},
		pkg.TotalHours)
	usage.UsedHours = resolveHours(raw, summary,
		[]string{"usedHours", "used_hours"}, []string{"usedHours", "used_hours", "used"},
		pkg.UsedHours)

	remainingFallback := math.Max(0, usage.TotalHours-usage.UsedHours)
	if pkg.RemainingHours != nil {
		remainingFallback = *pkg.RemainingHours
	}
	usage.RemainingHours = resolveHours(raw, summary,
		[]string{"remainingHours", "remaining_hours"}, []string{"remainingHours", "remaining_hours", "remaining"},
		remainingFallback)

	// a remaining figure that contradicts total/used is a correction
	// opportunity, not a value to trust
	if usage.TotalHours > 0 && math.Abs(usage.UsedHours+usage.RemainingHours-usage.TotalHours) > hoursTolerance {
		usage.RemainingHours = math.Max(0, usage.TotalHours-usage.UsedHours)
	}

	usage.PurchasePrice = resolveAmount(raw, summary,
		[]string{"purchasePrice", "purchase_price"}, []string{"purchasePrice", "purchase_price", "price"},
		pkg.PurchasePrice)

	usage.PricePerHour = resolveAmount(raw, summary,
		[]string{"pricePerHour", "price_per_hour"}, []string{"pricePerHour", "price_per_hour"},
		decimal.Zero)
	if usage.PricePerHour.IsZero() && usage.TotalHours > 0 {
		usage.PricePerHour = usage.PurchasePrice.Div(decimal.NewFromFloat(usage.TotalHours))
	}

	usage.UsedAmount = resolveAmount(raw, summary,
		[]string{"usedAmount", "used_amount"}, []string{"usedAmount", "used_amount"},
		decimal.NewFromFloat(usage.UsedHours).Mul(usage.PricePerHour))
	usage.RemainingAmount = resolveAmount(raw, summary,
		[]string{"remainingAmount", "remaining_amount"}, []string{"remainingAmount", "remaining_amount"},
		decimal.NewFromFloat(usage.RemainingHours).Mul(usage.PricePerHour))

	return usage
}

func rawFields(data json.RawMessage) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

func nestedSummary(raw map[string]any) map[string]any {
	for _, key := range []string{"usageSummary", "usage_summary"} {
		if nested, ok := raw[key].(map[string]any); ok {
			return nested
		}
	}
	return nil
}

func lookup(fields map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func resolveHours(raw, summary map[string]any, rawKeys, summaryKeys []string, fallback float64) float64 {
	if v, ok := lookup(raw, rawKeys); ok {
		return finance.ToFloat(v)
	}
	if v, ok := lookup(summary, summaryKeys); ok {
		return finance.ToFloat(v)
	}
	return fallback
}

func resolveAmount(raw, summary map[string]any, rawKeys, summaryKeys []string, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := lookup(raw, rawKeys); ok {
		return finance.ToDecimal(v)
	}
	if v, ok := lookup(summary, summaryKeys); ok {
		return finance.ToDecimal(v)
	}
	return fallback
}
