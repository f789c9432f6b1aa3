package enums

import "github.com/shopspring/decimal"

// DebtStatus colors a supplier's outstanding balance for the debts screen.
type DebtStatus string

const (
	DebtStatusGreen  DebtStatus = "green"
	DebtStatusYellow DebtStatus = "yellow"
)

var debtYellowFloor = decimal.NewFromInt(1000)

// String implements fmt.Stringer.
func (d DebtStatus) String() string {
	return string(d)
}

// DebtStatusFor tiers the given outstanding balance.
func DebtStatusFor(pending decimal.Decimal) DebtStatus {
	if pending.GreaterThan(debtYellowFloor) {
		return DebtStatusYellow
	}
	return DebtStatusGreen
}
