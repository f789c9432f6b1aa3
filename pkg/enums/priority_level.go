package enums

// PriorityLevel is the human-facing band for a forecast priority score.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// String implements fmt.Stringer.
func (p PriorityLevel) String() string {
	return string(p)
}

// PriorityFromScore thresholds the forecasting service's score. The score is
// produced externally, only the banding happens here.
func PriorityFromScore(score float64) PriorityLevel {
	switch {
	case score >= 0.7:
		return PriorityHigh
	case score >= 0.4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
