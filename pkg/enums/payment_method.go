package enums

import "fmt"

// PaymentMethodType categorizes how a sale is settled.
type PaymentMethodType string

const (
	PaymentMethodTypeCash     PaymentMethodType = "cash"
	PaymentMethodTypeCard     PaymentMethodType = "card"
	PaymentMethodTypeTransfer PaymentMethodType = "transfer"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypeCash,
	PaymentMethodTypeCard,
	PaymentMethodTypeTransfer,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}

// PaymentMethodStatus marks whether a payment method can be offered at checkout.
type PaymentMethodStatus string

const (
	PaymentMethodStatusActive   PaymentMethodStatus = "active"
	PaymentMethodStatusInactive PaymentMethodStatus = "inactive"
)

var validPaymentMethodStatuses = []PaymentMethodStatus{
	PaymentMethodStatusActive,
	PaymentMethodStatusInactive,
}

// String implements fmt.Stringer.
func (p PaymentMethodStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodStatus) IsValid() bool {
	for _, candidate := range validPaymentMethodStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodStatus converts raw input into a PaymentMethodStatus.
func ParsePaymentMethodStatus(value string) (PaymentMethodStatus, error) {
	for _, candidate := range validPaymentMethodStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method status %q", value)
}
