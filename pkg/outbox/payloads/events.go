package payloads

import (
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderStatusChangedEvent is emitted for every applied fulfillment transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	OrderNumber    int64               `json:"order_number"`
	From           enums.OrderStatus   `json:"from"`
	To             enums.OrderStatus   `json:"to"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	SellerIDs      []uuid.UUID         `json:"seller_ids"`
	TrackingNumber *string             `json:"tracking_number,omitempty"`
	Reason         *string             `json:"reason,omitempty"`
	ChangedAt      time.Time           `json:"changed_at"`
}

// PaymentStatusChangedEvent is emitted whenever payment status moves, including
// the implicit move to paid on delivery.
type PaymentStatusChangedEvent struct {
	OrderID   uuid.UUID           `json:"order_id"`
	From      enums.PaymentStatus `json:"from"`
	To        enums.PaymentStatus `json:"to"`
	Implicit  bool                `json:"implicit"`
	ChangedAt time.Time           `json:"changed_at"`
}

// PayoutRequestedEvent is emitted when a payout is admitted.
type PayoutRequestedEvent struct {
	PayoutID       uuid.UUID `json:"payout_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	AmountCents    int64     `json:"amount_cents"`
	AvailableCents int64     `json:"available_cents"`
	RequestedAt    time.Time `json:"requested_at"`
}

// PayoutCancelledEvent is emitted when a seller withdraws a pending payout.
type PayoutCancelledEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PayoutStatusChangedEvent covers the admin driven transitions.
type PayoutStatusChangedEvent struct {
	PayoutID      uuid.UUID          `json:"payout_id"`
	SellerID      uuid.UUID          `json:"seller_id"`
	AmountCents   int64              `json:"amount_cents"`
	From          enums.PayoutStatus `json:"from"`
	To            enums.PayoutStatus `json:"to"`
	FailureReason *string            `json:"failure_reason,omitempty"`
	ChangedAt     time.Time          `json:"changed_at"`
}
