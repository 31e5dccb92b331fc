// Package notifications fans settlement events out to buyer-facing channels.
// The default implementation only records the event; a mail or SMS sender can
// replace it without touching settlement.
package notifications

import (
	"context"

	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// Notifier receives order lifecycle events. Implementations must be safe to
// call from inside request handling and must not fail settlement.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderPaid(ctx context.Context, order *models.Order)
}

type logNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier records order events in the structured log.
func NewLogNotifier(logg *logger.Logger) Notifier {
	return &logNotifier{logg: logg}
}

func (n *logNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"order_no": order.OrderNo,
		"total":    order.Total.String(),
		"currency": order.Currency.String(),
		"email":    order.CustomerEmail,
	})
	n.logg.Info(ctx, "order created notification")
}

func (n *logNotifier) OrderPaid(ctx context.Context, order *models.Order) {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"order_no": order.OrderNo,
		"total":    order.Total.String(),
		"currency": order.Currency.String(),
		"email":    order.CustomerEmail,
	})
	n.logg.Info(ctx, "order paid notification")
}
