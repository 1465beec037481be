package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/types"
)

// Order is a buyer purchase that may contain line items from several sellers.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber        int64               `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	BuyerID            uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null" json:"buyer_id"`
	ShippingAddress    *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json" json:"shipping_address,omitempty"`
	BillingAddress     *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json" json:"billing_address,omitempty"`
	OrderStatus        enums.OrderStatus   `gorm:"column:order_status;type:text;not null;default:'pending'" json:"order_status"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	TotalCents         int64               `gorm:"column:total_cents;not null" json:"total_cents"`
	TrackingNumber     *string             `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	Notes              *string             `gorm:"column:notes" json:"notes,omitempty"`
	CancellationReason *string             `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time          `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time          `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time          `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	ReturnedAt         *time.Time          `gorm:"column:returned_at" json:"returned_at,omitempty"`
	Items              []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// HasSeller reports whether at least one line item belongs to sellerID.
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	if o == nil || sellerID == uuid.Nil {
		return false
	}
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// SellerItems returns the line items owned by sellerID.
func (o *Order) SellerItems(sellerID uuid.UUID) []OrderLineItem {
	if o == nil {
		return nil
	}
	items := make([]OrderLineItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			items = append(items, item)
		}
	}
	return items
}
