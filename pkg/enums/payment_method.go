package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod names how a customer paid.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodDefault  PaymentMethod = "default"
	PaymentMethodPOS      PaymentMethod = "pos"
	PaymentMethodOnline   PaymentMethod = "online"
	PaymentMethodStripe   PaymentMethod = "stripe"
	PaymentMethodTerminal PaymentMethod = "terminal"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodWallet   PaymentMethod = "wallet"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodDefault,
	PaymentMethodPOS,
	PaymentMethodOnline,
	PaymentMethodStripe,
	PaymentMethodTerminal,
	PaymentMethodCash,
	PaymentMethodWallet,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
