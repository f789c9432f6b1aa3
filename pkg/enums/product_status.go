package enums

import "strings"

// ProductStatus is the backend-reported lifecycle state of a product.
// Only active products participate in stock classification.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsActive reports whether the status counts as active, case-insensitively,
// since the backend is not strict about casing.
func (p ProductStatus) IsActive() bool {
	return strings.EqualFold(string(p), string(ProductStatusActive))
}
