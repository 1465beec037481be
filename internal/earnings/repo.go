package earnings

import (
	"context"
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SellerOrderTotal is one paid order reduced to the seller's line total.
type SellerOrderTotal struct {
	OrderID       uuid.UUID
	OrderStatus   enums.OrderStatus
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	SubtotalCents int64
}

// CommissionTotals aggregates paid GMV across every seller.
type CommissionTotals struct {
	GMVCents    int64 `gorm:"column:gmv_cents"`
	SellerCount int64 `gorm:"column:seller_count"`
	OrderCount  int64 `gorm:"column:order_count"`
}

// Repository reads the order data backing earnings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// SellerOrderTotals returns one row per paid order created in [from, to).
	SellerOrderTotals(ctx context.Context, sellerID uuid.UUID, from *time.Time, to time.Time) ([]SellerOrderTotal, error)
	// DeliveredOrderTotals returns paid orders delivered at or before cutoff.
	DeliveredOrderTotals(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) ([]SellerOrderTotal, error)
	CommissionTotals(ctx context.Context, from *time.Time, to time.Time) (CommissionTotals, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an earnings repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) sellerTotals(ctx context.Context, sellerID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id AS order_id, o.order_status, o.delivered_at, o.created_at, SUM(li.line_total_cents) AS subtotal_cents").
		Joins("JOIN order_line_items li ON li.order_id = o.id AND li.seller_id = ?", sellerID).
		Where("o.payment_status = ?", enums.PaymentStatusPaid).
		Group("o.id, o.order_status, o.delivered_at, o.created_at")
}

func (r *repository) SellerOrderTotals(ctx context.Context, sellerID uuid.UUID, from *time.Time, to time.Time) ([]SellerOrderTotal, error) {
	query := r.sellerTotals(ctx, sellerID).Where("o.created_at < ?", to.UTC())
	if from != nil {
		query = query.Where("o.created_at >= ?", from.UTC())
	}
	var rows []SellerOrderTotal
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeliveredOrderTotals(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) ([]SellerOrderTotal, error) {
	var rows []SellerOrderTotal
	err := r.sellerTotals(ctx, sellerID).
		Where("o.order_status = ?", enums.OrderStatusDelivered).
		Where("o.delivered_at IS NOT NULL AND o.delivered_at <= ?", cutoff.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CommissionTotals(ctx context.Context, from *time.Time, to time.Time) (CommissionTotals, error) {
	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`COALESCE(SUM(li.line_total_cents), 0) AS gmv_cents,
			COUNT(DISTINCT li.seller_id) AS seller_count,
			COUNT(DISTINCT o.id) AS order_count`).
		Joins("JOIN order_line_items li ON li.order_id = o.id").
		Where("o.payment_status = ?", enums.PaymentStatusPaid).
		Where("o.created_at < ?", to.UTC())
	if from != nil {
		query = query.Where("o.created_at >= ?", from.UTC())
	}
	var totals CommissionTotals
	if err := query.Scan(&totals).Error; err != nil {
		return CommissionTotals{}, err
	}
	return totals, nil
}
