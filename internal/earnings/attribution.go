package earnings

import (
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attribution is the seller's share of a single order.
type Attribution struct {
	SubtotalCents    int64 `json:"subtotal_cents"`
	PlatformFeeCents int64 `json:"platform_fee_cents"`
	NetCents         int64 `json:"net_cents"`
}

// AttributeSellerAmount sums the seller's own line items on order and applies
// feeRate. Orders that are not paid contribute nothing.
func AttributeSellerAmount(order *models.Order, sellerID uuid.UUID, feeRate decimal.Decimal) Attribution {
	if order == nil || order.PaymentStatus != enums.PaymentStatusPaid {
		return Attribution{}
	}
	var subtotal int64
	for _, item := range order.SellerItems(sellerID) {
		subtotal += item.LineTotalCents
	}
	return attributeSubtotal(subtotal, feeRate)
}

func attributeSubtotal(subtotal int64, feeRate decimal.Decimal) Attribution {
	fee := FeeCents(subtotal, feeRate)
	return Attribution{
		SubtotalCents:    subtotal,
		PlatformFeeCents: fee,
		NetCents:         subtotal - fee,
	}
}

// FeeCents applies rate to amount, rounding half away from zero to whole cents.
func FeeCents(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
