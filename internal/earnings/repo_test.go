package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type seededOrder struct {
	number      int64
	status      enums.OrderStatus
	payment     enums.PaymentStatus
	createdAt   time.Time
	deliveredAt *time.Time
	items       []models.OrderLineItem
}

func seedOrders(t *testing.T, db *gorm.DB, orders ...seededOrder) {
	t.Helper()
	for _, o := range orders {
		order := &models.Order{
			OrderNumber:   o.number,
			BuyerID:       uuid.New(),
			OrderStatus:   o.status,
			PaymentStatus: o.payment,
			CreatedAt:     o.createdAt,
			DeliveredAt:   o.deliveredAt,
			Items:         o.items,
		}
		require.NoError(t, db.Create(order).Error)
	}
}

func item(seller uuid.UUID, total int64) models.OrderLineItem {
	return models.OrderLineItem{ProductID: uuid.New(), SellerID: seller, Name: "Lamp", Qty: 1, UnitPriceCents: total}
}

func TestRepositoryGroupsSellerTotals(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	seller := uuid.New()
	other := uuid.New()
	now := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	delivered := now.AddDate(0, 0, -8)

	seedOrders(t, db,
		seededOrder{number: 1, status: enums.OrderStatusDelivered, payment: enums.PaymentStatusPaid, createdAt: now.AddDate(0, 0, -10), deliveredAt: &delivered,
			items: []models.OrderLineItem{item(seller, 40000), item(other, 40000), item(seller, 20000)}},
		seededOrder{number: 2, status: enums.OrderStatusConfirmed, payment: enums.PaymentStatusPending, createdAt: now.AddDate(0, 0, -2),
			items: []models.OrderLineItem{item(seller, 9000)}},
		seededOrder{number: 3, status: enums.OrderStatusShipped, payment: enums.PaymentStatusPaid, createdAt: now.AddDate(0, 0, -40),
			items: []models.OrderLineItem{item(seller, 7000)}},
	)
	ctx := context.Background()

	from := now.AddDate(0, 0, -30)
	rows, err := repo.SellerOrderTotals(ctx, seller, &from, now)
	require.NoError(t, err)
	require.Len(t, rows, 1, "unpaid and out-of-window orders are excluded")
	assert.Equal(t, int64(60000), rows[0].SubtotalCents)
	assert.Equal(t, enums.OrderStatusDelivered, rows[0].OrderStatus)
	require.NotNil(t, rows[0].DeliveredAt)

	all, err := repo.SellerOrderTotals(ctx, seller, nil, now)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := repo.DeliveredOrderTotals(ctx, seller, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(60000), completed[0].SubtotalCents)

	none, err := repo.DeliveredOrderTotals(ctx, seller, now.AddDate(0, 0, -9))
	require.NoError(t, err)
	assert.Empty(t, none)

	totals, err := repo.CommissionTotals(ctx, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(107000), totals.GMVCents)
	assert.Equal(t, int64(2), totals.SellerCount)
	assert.Equal(t, int64(2), totals.OrderCount)
}

func TestServiceCompletedNetAgainstSQLite(t *testing.T) {
	db := dbtest.Open(t)
	seller := uuid.New()
	now := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	delivered := now.AddDate(0, 0, -8)
	recent := now.AddDate(0, 0, -1)
	seedOrders(t, db,
		seededOrder{number: 10, status: enums.OrderStatusDelivered, payment: enums.PaymentStatusPaid, createdAt: now.AddDate(0, 0, -12), deliveredAt: &delivered,
			items: []models.OrderLineItem{item(seller, 60000), item(uuid.New(), 40000)}},
		seededOrder{number: 11, status: enums.OrderStatusDelivered, payment: enums.PaymentStatusPaid, createdAt: now.AddDate(0, 0, -3), deliveredAt: &recent,
			items: []models.OrderLineItem{item(seller, 10000)}},
	)

	svc := newTestService(t, NewRepository(db))
	svc.now = func() time.Time { return now }

	net, err := svc.CompletedNet(context.Background(), nil, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(57000), net)

	start := now.AddDate(0, 0, -30)
	summary, err := svc.Summarize(context.Background(), seller, &start, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(70000), summary.TotalRevenueCents)
	assert.Equal(t, int64(57000), summary.CompletedRevenueCents)
	assert.Equal(t, int64(9500), summary.PendingRevenueCents)
}

func TestRepositoryNeverCountsMismatchedLineTotal(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	seller := uuid.New()
	now := time.Now().UTC()

	order := &models.Order{
		OrderNumber:   42,
		BuyerID:       uuid.New(),
		OrderStatus:   enums.OrderStatusConfirmed,
		PaymentStatus: enums.PaymentStatusPaid,
		CreatedAt:     now.Add(-time.Hour),
		Items: []models.OrderLineItem{{
			ProductID: uuid.New(), SellerID: seller, Name: "Lamp",
			Qty: 2, UnitPriceCents: 100, LineTotalCents: 999999,
		}},
	}
	require.Error(t, db.Create(order).Error)

	err := db.Exec(`INSERT INTO order_line_items (id, order_id, product_id, seller_id, name, qty, unit_price_cents, line_total_cents)
		VALUES (?, ?, ?, ?, 'Lamp', 2, 100, 999999)`,
		uuid.NewString(), order.ID.String(), uuid.NewString(), seller.String()).Error
	require.Error(t, err, "schema must reject a line total that is not qty x unit price")

	rows, err := repo.SellerOrderTotals(context.Background(), seller, nil, now)
	require.NoError(t, err)
	for _, row := range rows {
		assert.NotEqual(t, int64(999999), row.SubtotalCents)
	}
}
