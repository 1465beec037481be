package earnings

import (
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
)

// Classify places an order's seller revenue in the hold window. Revenue is
// completed once the order has been delivered for at least hold.
func Classify(order *models.Order, hold time.Duration, now time.Time) enums.EarningsClass {
	if order == nil {
		return enums.EarningsClassPending
	}
	return classify(order.OrderStatus, order.DeliveredAt, hold, now)
}

func classify(status enums.OrderStatus, deliveredAt *time.Time, hold time.Duration, now time.Time) enums.EarningsClass {
	switch status {
	case enums.OrderStatusCancelled, enums.OrderStatusReturned:
		return enums.EarningsClassFailed
	case enums.OrderStatusDelivered:
		if deliveredAt != nil && !deliveredAt.After(now.Add(-hold)) {
			return enums.EarningsClassCompleted
		}
	}
	return enums.EarningsClassPending
}
