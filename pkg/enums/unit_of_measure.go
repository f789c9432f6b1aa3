package enums

import "fmt"

// UnitOfMeasure distinguishes line quantities sold by piece from those sold
// by weight. The sales flow only uses the piece unit; the purchasing flow
// uses both.
type UnitOfMeasure string

const (
	UnitPiece  UnitOfMeasure = "piece"
	UnitWeight UnitOfMeasure = "weight"
)

var validUnitsOfMeasure = []UnitOfMeasure{
	UnitPiece,
	UnitWeight,
}

// String implements fmt.Stringer.
func (u UnitOfMeasure) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitOfMeasure.
func (u UnitOfMeasure) IsValid() bool {
	for _, candidate := range validUnitsOfMeasure {
		if candidate == u {
			return true
		}
	}
	return false
}

// Other returns the opposite unit.
func (u UnitOfMeasure) Other() UnitOfMeasure {
	if u == UnitPiece {
		return UnitWeight
	}
	return UnitPiece
}

// ParseUnitOfMeasure converts raw input into a UnitOfMeasure.
func ParseUnitOfMeasure(value string) (UnitOfMeasure, error) {
	for _, candidate := range validUnitsOfMeasure {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit of measure %q", value)
}
