package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketdesk-backend/internal/earnings"
	"github.com/angelmondragon/marketdesk-backend/internal/orders"
	"github.com/angelmondragon/marketdesk-backend/internal/payouts"
	pkgAuth "github.com/angelmondragon/marketdesk-backend/pkg/auth"
	"github.com/angelmondragon/marketdesk-backend/pkg/config"
	"github.com/angelmondragon/marketdesk-backend/pkg/db"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/metrics"
	"github.com/angelmondragon/marketdesk-backend/pkg/outbox"
)

type testAPI struct {
	handler http.Handler
	conn    *gorm.DB
	cfg     *config.Config
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.NewFromConn(conn)
	cfg := &config.Config{
		App:      config.AppConfig{Env: "test"},
		JWT:      config.JWTConfig{Secret: "router-secret", Issuer: "marketdesk-test", ExpirationMinutes: 30},
		Earnings: config.EarningsConfig{FeeRate: "0.05", CommissionRate: "0.10", HoldDays: 7},
		Payouts:  config.PayoutsConfig{LockBackend: "local", MinAmountCents: 1},
	}
	reg := prometheus.NewRegistry()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)

	ordersSvc, err := orders.NewService(orders.NewRepository(conn), client, outboxSvc, metrics.NewOrderMetrics(reg))
	require.NoError(t, err)
	earningsSvc, err := earnings.NewService(earnings.NewRepository(conn), cfg.Earnings)
	require.NoError(t, err)
	payoutsSvc, err := payouts.NewService(payouts.ServiceParams{
		Repo:     payouts.NewRepository(conn),
		Tx:       client,
		Outbox:   outboxSvc,
		Earnings: earningsSvc,
		Locker:   payouts.NewLocalLocker(),
		Metrics:  metrics.NewPayoutMetrics(reg),
		Config:   cfg.Payouts,
	})
	require.NoError(t, err)

	handler := NewRouter(cfg, nil, client, nil, reg, metrics.NewHTTPMetrics(reg), Services{
		Orders:   ordersSvc,
		Earnings: earningsSvc,
		Payouts:  payoutsSvc,
	})
	return &testAPI{handler: handler, conn: conn, cfg: cfg}
}

func (a *testAPI) token(t *testing.T, role enums.ActorRole, sellerID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(a.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     role,
		SellerID: sellerID,
	})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	a.handler.ServeHTTP(resp, req)
	return resp
}

func (a *testAPI) seedOrder(t *testing.T, number int64, status enums.OrderStatus, payment enums.PaymentStatus, deliveredAt *time.Time, items ...models.OrderLineItem) *models.Order {
	t.Helper()
	var total int64
	for _, item := range items {
		total += int64(item.Qty) * item.UnitPriceCents
	}
	order := &models.Order{
		OrderNumber:   number,
		BuyerID:       uuid.New(),
		OrderStatus:   status,
		PaymentStatus: payment,
		TotalCents:    total,
		DeliveredAt:   deliveredAt,
		Items:         items,
	}
	require.NoError(t, a.conn.Create(order).Error)
	return order
}

func item(seller uuid.UUID, cents int64) models.OrderLineItem {
	return models.OrderLineItem{ProductID: uuid.New(), SellerID: seller, Name: "item", Qty: 1, UnitPriceCents: cents}
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload.Error.Code
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/health/ready", "", "").Code)

	resp := api.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "http_requests_total")
}

func TestRoutesRequireAuthAndRole(t *testing.T) {
	api := newTestAPI(t)
	seller := uuid.New()

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/seller/orders", "", "").Code)

	sellerToken := api.token(t, enums.ActorRoleSeller, &seller)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/admin/v1/earnings/commission", sellerToken, "").Code)

	adminToken := api.token(t, enums.ActorRoleAdmin, nil)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/seller/payouts/balance", adminToken, "").Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	sellerA := uuid.New()
	sellerB := uuid.New()
	outsider := uuid.New()
	order := api.seedOrder(t, 1001, enums.OrderStatusPending, enums.PaymentStatusPending, nil, item(sellerA, 60000), item(sellerB, 40000))

	sellerToken := api.token(t, enums.ActorRoleSeller, &sellerA)
	adminToken := api.token(t, enums.ActorRoleAdmin, nil)
	path := "/api/v1/seller/orders/" + order.ID.String() + "/status"

	resp := api.do(t, http.MethodPatch, path, api.token(t, enums.ActorRoleSeller, &outsider), `{"status":"confirmed"}`)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = api.do(t, http.MethodPatch, path, sellerToken, `{"status":"delivered"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, resp))

	for _, status := range []string{"confirmed", "processing"} {
		resp = api.do(t, http.MethodPatch, path, sellerToken, `{"status":"`+status+`"}`)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	adminPath := "/api/admin/v1/orders/" + order.ID.String() + "/status"
	resp = api.do(t, http.MethodPatch, adminPath, adminToken, `{"status":"shipped","tracking_number":"TRK-42"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = api.do(t, http.MethodPatch, adminPath, adminToken, `{"status":"delivered"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var delivered models.Order
	decodeData(t, resp, &delivered)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.OrderStatus)
	assert.Equal(t, enums.PaymentStatusPaid, delivered.PaymentStatus)
	assert.NotNil(t, delivered.DeliveredAt)

	resp = api.do(t, http.MethodGet, "/api/v1/seller/orders?order_status=delivered", sellerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var list orders.SellerOrderList
	decodeData(t, resp, &list)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, int64(60000), list.Orders[0].SellerSubtotalCents)

	var events int64
	require.NoError(t, api.conn.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.GreaterOrEqual(t, events, int64(4))
}

func TestPayoutFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	seller := uuid.New()
	past := time.Now().UTC().AddDate(0, 0, -10)
	api.seedOrder(t, 2001, enums.OrderStatusDelivered, enums.PaymentStatusPaid, &past, item(seller, 60000), item(uuid.New(), 40000))

	sellerToken := api.token(t, enums.ActorRoleSeller, &seller)
	adminToken := api.token(t, enums.ActorRoleAdmin, nil)

	resp := api.do(t, http.MethodGet, "/api/v1/seller/payouts/balance", sellerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var balance payouts.Balance
	decodeData(t, resp, &balance)
	assert.Equal(t, int64(57000), balance.AvailableCents)

	body := `{"amount_cents":%d,"bank_details":{"account_holder":"Asha Rao","account_number":"001234567890","ifsc":"HDFC0001234","bank_name":"HDFC"}}`
	resp = api.do(t, http.MethodPost, "/api/v1/seller/payouts", sellerToken, strings.Replace(body, "%d", "90000", 1))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", errorCode(t, resp))

	resp = api.do(t, http.MethodPost, "/api/v1/seller/payouts", sellerToken, strings.Replace(body, "%d", "50000", 1))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var payout payouts.PayoutDTO
	decodeData(t, resp, &payout)
	assert.Equal(t, enums.PayoutStatusPending, payout.Status)
	assert.Equal(t, "********7890", payout.BankDetails.AccountNumber)

	resp = api.do(t, http.MethodPost, "/api/admin/v1/payouts/"+payout.ID.String()+"/approve", adminToken, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.do(t, http.MethodPost, "/api/v1/seller/payouts/"+payout.ID.String()+"/cancel", sellerToken, "")
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "NOT_PENDING", errorCode(t, resp))

	resp = api.do(t, http.MethodPost, "/api/admin/v1/payouts/"+payout.ID.String()+"/complete", adminToken, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = api.do(t, http.MethodGet, "/api/v1/seller/payouts/balance", sellerToken, "")
	decodeData(t, resp, &balance)
	assert.Equal(t, int64(7000), balance.AvailableCents)

	resp = api.do(t, http.MethodGet, "/api/v1/seller/earnings?period=30d", sellerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var summary earnings.Summary
	decodeData(t, resp, &summary)
	assert.Equal(t, int64(60000), summary.TotalRevenueCents)
	assert.Equal(t, int64(57000), summary.CompletedRevenueCents)
	assert.Equal(t, int64(0), summary.PendingRevenueCents)
}
