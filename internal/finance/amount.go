package finance

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aydindemir/driftops-backend/pkg/config"
)

// feePreference is the fixed lookup order for the payment-fee entry used in
// estimation. Falls back to the first available entry (by sorted key) when
// none of the preferred methods is configured.
var feePreference = []string{"card", "default", "pos", "online", "stripe", "terminal"}

// ToDecimal coerces an untyped value into a decimal. Unparseable, NaN and
// infinite inputs all collapse to zero; downstream arithmetic must never see
// a poisoned value.
func ToDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(val)
	case float32:
		return ToDecimal(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case json.Number:
		return parseDecimalString(val.String())
	case string:
		return parseDecimalString(val)
	default:
		return decimal.Zero
	}
}

// ToFloat coerces an untyped value into a float64, never NaN or Inf.
func ToFloat(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return val
	case float32:
		return ToFloat(float64(val))
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case decimal.Decimal:
		f, _ := val.Float64()
		return f
	case json.Number:
		return parseFloatString(val.String())
	case string:
		return parseFloatString(val)
	default:
		return 0
	}
}

func parseDecimalString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloatString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ApplyPct returns base × pct/100.
func ApplyPct(base decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() || base.IsZero() {
		return decimal.Zero
	}
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// NormalizeFee coerces a loosely-shaped fee entry (upstream settings store
// both {pct,fixed} and {percentage,flat} spellings) into a typed PaymentFee.
func NormalizeFee(v any) config.PaymentFee {
	switch val := v.(type) {
	case config.PaymentFee:
		return val
	case map[string]any:
		fee := config.PaymentFee{Pct: decimal.Zero, Fixed: decimal.Zero}
		for _, key := range []string{"pct", "percentage", "percent", "rate"} {
			if raw, ok := val[key]; ok {
				fee.Pct = ToDecimal(raw)
				break
			}
		}
		for _, key := range []string{"fixed", "flat", "fixed_fee"} {
			if raw, ok := val[key]; ok {
				fee.Fixed = ToDecimal(raw)
				break
			}
		}
		return fee
	default:
		return config.PaymentFee{Pct: decimal.Zero, Fixed: decimal.Zero}
	}
}

// PreferredFee selects the fee entry used for estimation. Returns false only
// when the table is empty.
func PreferredFee(fees config.FeeTable) (config.PaymentFee, bool) {
	if len(fees) == 0 {
		return config.PaymentFee{}, false
	}
	for _, method := range feePreference {
		if fee, ok := fees[method]; ok {
			return fee, true
		}
	}

	keys := make([]string, 0, len(fees))
	for k := range fees {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fees[keys[0]], true
}
