package enums

import "fmt"

// SeverityTier buckets a product's available quantity against the configured
// thresholds. Never stored, always recomputed.
type SeverityTier string

const (
	TierCritical SeverityTier = "critical"
	TierLow      SeverityTier = "low"
	TierMedium   SeverityTier = "medium"
	TierOK       SeverityTier = "ok"
)

var validSeverityTiers = []SeverityTier{
	TierCritical,
	TierLow,
	TierMedium,
	TierOK,
}

// String implements fmt.Stringer.
func (s SeverityTier) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SeverityTier.
func (s SeverityTier) IsValid() bool {
	for _, candidate := range validSeverityTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// Alerts reports whether the tier participates in low-stock alerting.
// Medium is informational only.
func (s SeverityTier) Alerts() bool {
	return s == TierCritical || s == TierLow
}

// ParseSeverityTier converts raw input into a SeverityTier.
func ParseSeverityTier(value string) (SeverityTier, error) {
	for _, candidate := range validSeverityTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid severity tier %q", value)
}
