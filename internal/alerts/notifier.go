package alerts

import (
	"context"
	"fmt"

	"github.com/posfin/pos-engine/pkg/enums"
	"github.com/posfin/pos-engine/pkg/logger"
)

// Alert is one product that crossed into an alerting tier.
type Alert struct {
	ProductID   string
	ProductName string
	Quantity    int
	Tier        enums.SeverityTier
}

// Notifier delivers alerts. Grouped delivery is used when a sweep admits
// more products than a person would want individual messages for.
type Notifier interface {
	NotifyProduct(ctx context.Context, alert Alert) error
	NotifyGrouped(ctx context.Context, alerts []Alert) error
}

// LogNotifier writes alerts to the structured log. It is the default sink
// and the fallback when no external channel is configured.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier wraps the logger.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logg}
}

func (n *LogNotifier) NotifyProduct(ctx context.Context, alert Alert) error {
	ctx = n.logger.WithProductID(ctx, alert.ProductID)
	n.logger.Warn(ctx, fmt.Sprintf("stock %s: %s has %d left", alert.Tier, alert.ProductName, alert.Quantity))
	return nil
}

func (n *LogNotifier) NotifyGrouped(ctx context.Context, alerts []Alert) error {
	critical := 0
	for _, alert := range alerts {
		if alert.Tier == enums.TierCritical {
			critical++
		}
	}
	n.logger.Warn(ctx, fmt.Sprintf("stock alert: %d products low on stock (%d critical)", len(alerts), critical))
	return nil
}
