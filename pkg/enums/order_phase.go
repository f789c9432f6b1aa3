package enums

import "fmt"

// OrderPhase is the lifecycle position of a cart. Sales carts move
// Empty → Building → Saved → SettlementRequested → Finalized; purchase carts
// branch Building → Confirmed → PaymentRecorded. Transition rules live in
// internal/lifecycle, this type only names the states.
type OrderPhase string

const (
	PhaseEmpty               OrderPhase = "empty"
	PhaseBuilding            OrderPhase = "building"
	PhaseSaved               OrderPhase = "saved"
	PhaseSettlementRequested OrderPhase = "settlement_requested"
	PhaseFinalized           OrderPhase = "finalized"
	PhaseConfirmed           OrderPhase = "confirmed"
	PhasePaymentRecorded     OrderPhase = "payment_recorded"
)

var validOrderPhases = []OrderPhase{
	PhaseEmpty,
	PhaseBuilding,
	PhaseSaved,
	PhaseSettlementRequested,
	PhaseFinalized,
	PhaseConfirmed,
	PhasePaymentRecorded,
}

// String implements fmt.Stringer.
func (p OrderPhase) String() string {
	return string(p)
}

// IsValid reports whether the value is a known OrderPhase.
func (p OrderPhase) IsValid() bool {
	for _, candidate := range validOrderPhases {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the phase permits no further transitions.
func (p OrderPhase) IsTerminal() bool {
	return p == PhaseFinalized || p == PhasePaymentRecorded
}

// ParseOrderPhase converts raw input into an OrderPhase.
func ParseOrderPhase(value string) (OrderPhase, error) {
	for _, candidate := range validOrderPhases {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order phase %q", value)
}
