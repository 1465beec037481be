package orders

import (
	"context"

	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// UpdateStatusIfUnchanged applies updates only while the row still holds
	// the expected statuses and returns the number of rows changed.
	UpdateStatusIfUnchanged(ctx context.Context, orderID uuid.UUID, expectOrder enums.OrderStatus, expectPayment enums.PaymentStatus, updates map[string]any) (int64, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters Filters) (*SellerOrderList, error)
}
