package enums

import "fmt"

// CartState tracks a checkout session through its lifecycle. An empty cart is
// Empty, mutation moves it to Building, initiating checkout moves it to
// AwaitingPayment, and a successful submission terminates it at Submitted.
// Failed submissions fall back to Building with lines intact.
type CartState string

const (
	CartStateEmpty           CartState = "empty"
	CartStateBuilding        CartState = "building"
	CartStateAwaitingPayment CartState = "awaiting_payment"
	CartStateSubmitted       CartState = "submitted"
)

var validCartStates = []CartState{
	CartStateEmpty,
	CartStateBuilding,
	CartStateAwaitingPayment,
	CartStateSubmitted,
}

// String implements fmt.Stringer.
func (c CartState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartState.
func (c CartState) IsValid() bool {
	for _, candidate := range validCartStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further mutation is allowed.
func (c CartState) IsTerminal() bool {
	return c == CartStateSubmitted
}

// ParseCartState converts raw input into a CartState.
func ParseCartState(value string) (CartState, error) {
	for _, candidate := range validCartStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart state %q", value)
}
