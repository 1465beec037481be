package orders

import (
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// Filters narrows a seller order list. Nil fields are not applied.
type Filters struct {
	OrderStatus   *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	// Query matches an order number prefix or tracking number prefix.
	Query string
}

// SellerOrderSummary is one row of a seller's order list. Amounts cover only
// the seller's own line items.
type SellerOrderSummary struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNumber         int64               `json:"order_number"`
	OrderStatus         enums.OrderStatus   `json:"order_status"`
	PaymentStatus       enums.PaymentStatus `json:"payment_status"`
	TrackingNumber      *string             `json:"tracking_number,omitempty"`
	SellerSubtotalCents int64               `json:"seller_subtotal_cents"`
	ItemCount           int64               `json:"item_count"`
	CreatedAt           time.Time           `json:"created_at"`
	DeliveredAt         *time.Time          `json:"delivered_at,omitempty"`
}

// SellerOrderList wraps the paginated orders plus the next page cursor.
type SellerOrderList struct {
	Orders     []SellerOrderSummary `json:"orders"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// UpdateStatusInput carries a fulfillment status change request.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	Notes          *string
	TrackingNumber *string
	Actor          Actor
}

// UpdatePaymentStatusInput carries an admin payment status change request.
type UpdatePaymentStatusInput struct {
	OrderID uuid.UUID
	Status  enums.PaymentStatus
	Actor   Actor
}
