package payouts

import (
	"context"

	"github.com/angelmondragon/marketdesk-backend/pkg/db"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LockSeller(ctx context.Context, sellerID uuid.UUID) error {
	if !db.IsPostgres(r.db) {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?::text, 0))", sellerID.String()).
		Error
}

func (r *repository) SumReserved(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("seller_id = ? AND status IN ?", sellerID, enums.BalanceConsumingPayoutStatuses()).
		Scan(&total).Error
	return total, err
}

func (r *repository) Create(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error) {
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

func (r *repository) FindByID(ctx context.Context, payoutID uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	if err := r.db.WithContext(ctx).Where("id = ?", payoutID).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) UpdateStatusIfCurrent(ctx context.Context, payoutID uuid.UUID, expect enums.PayoutStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", payoutID, expect).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*PayoutList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&models.PayoutRequest{})
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		at := cursor.At.UTC()
		query = query.Where("(requested_at < ? OR (requested_at = ? AND id < ?))", at, at, cursor.ID)
	}

	var rows []models.PayoutRequest
	err = query.
		Order("requested_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page, more := pagination.Trim(rows, params.Limit)
	list := &PayoutList{Payouts: make([]PayoutDTO, 0, len(page))}
	for i := range page {
		list.Payouts = append(list.Payouts, NewPayoutDTO(&page[i]))
	}
	if more && len(page) > 0 {
		last := page[len(page)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{At: last.RequestedAt, ID: last.ID})
	}
	return list, nil
}
