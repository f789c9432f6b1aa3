package forecast

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
)

// Suggestion is one product's reorder advice, fully formatted for display.
type Suggestion struct {
	ProductID         string              `json:"product_id"`
	ProductName       string              `json:"product_name"`
	CurrentStock      int                 `json:"current_stock"`
	SuggestedQuantity int                 `json:"suggested_quantity"`
	Priority          enums.PriorityLevel `json:"priority"`
	DaysOfStock       *int                `json:"days_of_stock,omitempty"`
	DailyConsumption  decimal.Decimal     `json:"daily_consumption"`
	Confidence        string              `json:"confidence"`
	Recommendation    string              `json:"recommendation"`
}

// BuildSuggestion turns a raw prediction and the locally computed
// consumption rate into display advice. Quantities round half up, a
// prediction of 2.5 pieces means buying 3, and confidence becomes a
// whole percentage.
func BuildSuggestion(name string, stock int, rate decimal.Decimal, p Prediction) Suggestion {
	suggestion := Suggestion{
		ProductID:         p.ProductID.String(),
		ProductName:       name,
		CurrentStock:      stock,
		SuggestedQuantity: int(math.Round(p.SuggestedQuantity)),
		Priority:          enums.PriorityFromScore(p.Score),
		DailyConsumption:  rate.Round(2),
		Confidence:        fmt.Sprintf("%d%%", int(math.Round(p.Confidence*100))),
	}
	if days, ok := DaysOfStock(stock, rate); ok {
		suggestion.DaysOfStock = &days
	}
	suggestion.Recommendation = recommendation(suggestion.Priority, suggestion.DaysOfStock)
	return suggestion
}

func recommendation(priority enums.PriorityLevel, daysOfStock *int) string {
	switch priority {
	case enums.PriorityHigh:
		if daysOfStock != nil {
			return fmt.Sprintf("Reorder now, stock runs out in about %d day(s)", *daysOfStock)
		}
		return "Reorder now"
	case enums.PriorityMedium:
		return "Plan a reorder within the week"
	default:
		if daysOfStock == nil {
			return "No recent consumption, review before ordering"
		}
		return "No action needed"
	}
}
