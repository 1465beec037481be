package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLineItem is the immutable price snapshot of one product within an order.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	SellerID       uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Qty            int       `gorm:"column:qty;not null" json:"qty"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null" json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null" json:"line_total_cents"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// BeforeCreate derives the line total from qty and unit price. A caller
// supplied total that disagrees is rejected.
func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.Qty <= 0 {
		return fmt.Errorf("line item qty must be positive, got %d", i.Qty)
	}
	if i.UnitPriceCents < 0 {
		return fmt.Errorf("line item unit price must not be negative, got %d", i.UnitPriceCents)
	}
	total := int64(i.Qty) * i.UnitPriceCents
	if i.LineTotalCents != 0 && i.LineTotalCents != total {
		return fmt.Errorf("line item total %d does not match qty %d x unit price %d", i.LineTotalCents, i.Qty, i.UnitPriceCents)
	}
	i.LineTotalCents = total
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
