package lifecycle

import (
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
)

// The lifecycle is a closed set of transition functions over
// enums.OrderPhase. Each returns the next phase or a STATE_CONFLICT error
// with the specific guard that failed; callers never mutate the phase
// directly. A failed backend call during a transition means the caller keeps
// the old phase and may retry from it.

// Mutate is the transition taken by any cart mutation. It is legal from every
// phase except Finalized (terminal; a new session starts a new cart) and
// always lands in Building.
func Mutate(phase enums.OrderPhase) (enums.OrderPhase, error) {
	if phase == enums.PhaseFinalized {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "sale is finalized; open a new session to start another order")
	}
	return enums.PhaseBuilding, nil
}

// Save gates Building → Saved. The cart must not be empty.
func Save(phase enums.OrderPhase, empty bool) (enums.OrderPhase, error) {
	if empty {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot save an empty cart")
	}
	switch phase {
	case enums.PhaseBuilding, enums.PhaseSaved:
		return enums.PhaseSaved, nil
	default:
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be saved in its current state")
	}
}

// RequestSettlement gates Saved → SettlementRequested. The guard on dirty
// exists so settlement is never requested on lines the backend has not seen.
func RequestSettlement(phase enums.OrderPhase, dirty, empty bool) (enums.OrderPhase, error) {
	if phase != enums.PhaseSaved {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "save the order before requesting settlement")
	}
	if dirty {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed since the last save; save again before requesting settlement")
	}
	if empty {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot request settlement for an empty cart")
	}
	return enums.PhaseSettlementRequested, nil
}

// Finalize gates SettlementRequested → Finalized. Requires a chosen payment
// method and a positive amount.
func Finalize(phase enums.OrderPhase, hasPaymentMethod bool, amount decimal.Decimal) (enums.OrderPhase, error) {
	if phase != enums.PhaseSettlementRequested {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "request settlement before finalizing the sale")
	}
	if !hasPaymentMethod {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "a payment method is required to finalize")
	}
	if !amount.IsPositive() {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "payment amount must be greater than zero")
	}
	return enums.PhaseFinalized, nil
}

// Confirm gates Building → Confirmed on the purchasing branch. The purchase
// order is submitted whole; there is no partially-confirmed state, so a
// failed submission leaves the cart in Building for a wholesale retry.
func Confirm(phase enums.OrderPhase, empty bool) (enums.OrderPhase, error) {
	if empty {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot confirm an empty purchase cart")
	}
	if phase != enums.PhaseBuilding {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order cannot be confirmed in its current state")
	}
	return enums.PhaseConfirmed, nil
}

// RecordPayment gates Confirmed → PaymentRecorded. Optional; confirmation
// already cleared the cart, recording payment changes nothing else.
func RecordPayment(phase enums.OrderPhase, amount decimal.Decimal) (enums.OrderPhase, error) {
	if phase != enums.PhaseConfirmed {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "confirm the purchase order before recording a payment")
	}
	if !amount.IsPositive() {
		return phase, pkgerrors.New(pkgerrors.CodeStateConflict, "payment amount must be greater than zero")
	}
	return enums.PhasePaymentRecorded, nil
}
