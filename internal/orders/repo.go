package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/db"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateOrderNumber is returned when the order number is already taken.
var ErrDuplicateOrderNumber = errors.New("order number already exists")

const orderNumberConstraint = "ux_orders_order_number"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order and its line items together.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, orderNumberConstraint) || db.IsUniqueViolation(err, "orders.order_number") {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatusIfUnchanged(ctx context.Context, orderID uuid.UUID, expectOrder enums.OrderStatus, expectPayment enums.PaymentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ? AND payment_status = ?", orderID, expectOrder, expectPayment).
		Updates(updates)
	return res.RowsAffected, res.Error
}

type sellerOrderRow struct {
	ID                  uuid.UUID
	OrderNumber         int64
	OrderStatus         enums.OrderStatus
	PaymentStatus       enums.PaymentStatus
	TrackingNumber      *string
	SellerSubtotalCents int64
	ItemCount           int64
	CreatedAt           time.Time
	DeliveredAt         *time.Time
}

func (r *repository) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters Filters) (*SellerOrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.order_number, o.order_status, o.payment_status, o.tracking_number,
			o.created_at, o.delivered_at,
			SUM(li.line_total_cents) AS seller_subtotal_cents,
			SUM(li.qty) AS item_count`).
		Joins("JOIN order_line_items li ON li.order_id = o.id AND li.seller_id = ?", sellerID)

	if filters.OrderStatus != nil {
		query = query.Where("o.order_status = ?", *filters.OrderStatus)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("o.payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		query = query.Where("o.created_at >= ?", filters.DateFrom.UTC())
	}
	if filters.DateTo != nil {
		query = query.Where("o.created_at < ?", filters.DateTo.UTC())
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		like := q + "%"
		query = query.Where("(CAST(o.order_number AS TEXT) LIKE ? OR o.tracking_number LIKE ?)", like, like)
	}
	if cursor != nil {
		at := cursor.At.UTC()
		query = query.Where("(o.created_at < ? OR (o.created_at = ? AND o.id < ?))", at, at, cursor.ID)
	}

	var rows []sellerOrderRow
	err = query.
		Group("o.id, o.order_number, o.order_status, o.payment_status, o.tracking_number, o.created_at, o.delivered_at").
		Order("o.created_at DESC").
		Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	page, more := pagination.Trim(rows, params.Limit)
	list := &SellerOrderList{Orders: make([]SellerOrderSummary, 0, len(page))}
	for _, row := range page {
		list.Orders = append(list.Orders, SellerOrderSummary(row))
	}
	if more && len(page) > 0 {
		last := page[len(page)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}
