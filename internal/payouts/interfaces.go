package payouts

import (
	"context"

	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists payout requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// LockSeller takes a transaction-scoped advisory lock on Postgres. It is a
	// no-op on other dialects.
	LockSeller(ctx context.Context, sellerID uuid.UUID) error
	SumReserved(ctx context.Context, sellerID uuid.UUID) (int64, error)
	Create(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error)
	FindByID(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error)
	UpdateStatusIfCurrent(ctx context.Context, payoutID uuid.UUID, expect enums.PayoutStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*PayoutList, error)
}
