package payouts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketdesk-backend/api/middleware"
	internalpayouts "github.com/angelmondragon/marketdesk-backend/internal/payouts"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
)

type stubPayoutsService struct {
	balanceFn  func(ctx context.Context, sellerID uuid.UUID) (*internalpayouts.Balance, error)
	requestFn  func(ctx context.Context, input internalpayouts.RequestPayoutInput) (*internalpayouts.PayoutDTO, error)
	cancelFn   func(ctx context.Context, input internalpayouts.CancelPayoutInput) (*internalpayouts.PayoutDTO, error)
	listFn     func(ctx context.Context, filters internalpayouts.ListFilters, params pagination.Params) (*internalpayouts.PayoutList, error)
	approveFn  func(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error)
	completeFn func(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error)
	rejectFn   func(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error)
}

func (s stubPayoutsService) AvailableBalance(ctx context.Context, sellerID uuid.UUID) (*internalpayouts.Balance, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, sellerID)
	}
	panic("not implemented")
}

func (s stubPayoutsService) RequestPayout(ctx context.Context, input internalpayouts.RequestPayoutInput) (*internalpayouts.PayoutDTO, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, input)
	}
	panic("not implemented")
}

func (s stubPayoutsService) CancelPayout(ctx context.Context, input internalpayouts.CancelPayoutInput) (*internalpayouts.PayoutDTO, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	panic("not implemented")
}

func (s stubPayoutsService) ListPayouts(ctx context.Context, filters internalpayouts.ListFilters, params pagination.Params) (*internalpayouts.PayoutList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filters, params)
	}
	panic("not implemented")
}

func (s stubPayoutsService) ApprovePayout(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, input)
	}
	panic("not implemented")
}

func (s stubPayoutsService) CompletePayout(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error) {
	if s.completeFn != nil {
		return s.completeFn(ctx, input)
	}
	panic("not implemented")
}

func (s stubPayoutsService) RejectPayout(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, input)
	}
	panic("not implemented")
}

const validPayoutBody = `{"amount_cents":30000,"bank_details":{"account_holder":"Asha Rao","account_number":"001234567890","ifsc":"HDFC0001234","bank_name":"HDFC"}}`

func asSeller(req *http.Request, sellerID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), string(enums.ActorRoleSeller), &sellerID))
}

func asAdmin(req *http.Request, adminID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), adminID, string(enums.ActorRoleAdmin), nil))
}

func withPayoutParam(req *http.Request, payoutID uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("payoutId", payoutID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateReturnsCreated(t *testing.T) {
	sellerID := uuid.New()
	svc := stubPayoutsService{
		requestFn: func(ctx context.Context, input internalpayouts.RequestPayoutInput) (*internalpayouts.PayoutDTO, error) {
			if input.SellerID != sellerID || input.AmountCents != 30000 {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.BankDetails.IFSC != "HDFC0001234" {
				t.Fatalf("bank details not decoded")
			}
			return &internalpayouts.PayoutDTO{ID: uuid.New(), SellerID: sellerID, AmountCents: input.AmountCents, Status: enums.PayoutStatusPending}, nil
		},
	}

	req := asSeller(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validPayoutBody)), sellerID)
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateExposesInsufficientBalanceDetails(t *testing.T) {
	svc := stubPayoutsService{
		requestFn: func(ctx context.Context, input internalpayouts.RequestPayoutInput) (*internalpayouts.PayoutDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "requested amount exceeds available balance").
				WithDetails(map[string]any{"available_cents": 30000, "requested_cents": 50000})
		},
	}

	req := asSeller(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validPayoutBody)), uuid.New())
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeInsufficientBalance) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
	if payload.Error.Details["available_cents"] != float64(30000) || payload.Error.Details["requested_cents"] != float64(50000) {
		t.Fatalf("unexpected details %v", payload.Error.Details)
	}
}

func TestCreateRejectsMissingBankDetails(t *testing.T) {
	req := asSeller(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount_cents":100}`)), uuid.New())
	resp := httptest.NewRecorder()
	Create(stubPayoutsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateRequiresSellerContext(t *testing.T) {
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validPayoutBody)), uuid.New())
	resp := httptest.NewRecorder()
	Create(stubPayoutsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCancelMapsNotPending(t *testing.T) {
	sellerID := uuid.New()
	payoutID := uuid.New()
	svc := stubPayoutsService{
		cancelFn: func(ctx context.Context, input internalpayouts.CancelPayoutInput) (*internalpayouts.PayoutDTO, error) {
			if input.PayoutID != payoutID || input.SellerID != sellerID {
				t.Fatalf("unexpected input %+v", input)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotPending, "only pending payouts can be cancelled")
		},
	}

	req := withPayoutParam(asSeller(httptest.NewRequest(http.MethodPost, "/", nil), sellerID), payoutID)
	resp := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestBalance(t *testing.T) {
	sellerID := uuid.New()
	svc := stubPayoutsService{
		balanceFn: func(ctx context.Context, gotSeller uuid.UUID) (*internalpayouts.Balance, error) {
			return &internalpayouts.Balance{SellerID: gotSeller, CompletedNetCents: 57000, ReservedCents: 20000, AvailableCents: 37000}, nil
		},
	}
	req := asSeller(httptest.NewRequest(http.MethodGet, "/", nil), sellerID)
	resp := httptest.NewRecorder()
	Balance(svc, nil).ServeHTTP(resp, req)

	var envelope struct {
		Data internalpayouts.Balance `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AvailableCents != 37000 || envelope.Data.SellerID != sellerID {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestListScopesToSeller(t *testing.T) {
	sellerID := uuid.New()
	svc := stubPayoutsService{
		listFn: func(ctx context.Context, filters internalpayouts.ListFilters, params pagination.Params) (*internalpayouts.PayoutList, error) {
			if filters.SellerID == nil || *filters.SellerID != sellerID {
				t.Fatalf("expected seller scope")
			}
			if filters.Status == nil || *filters.Status != enums.PayoutStatusPending {
				t.Fatalf("expected pending filter")
			}
			return &internalpayouts.PayoutList{}, nil
		},
	}
	req := asSeller(httptest.NewRequest(http.MethodGet, "/?status=pending", nil), sellerID)
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminListWithoutSellerFilter(t *testing.T) {
	svc := stubPayoutsService{
		listFn: func(ctx context.Context, filters internalpayouts.ListFilters, params pagination.Params) (*internalpayouts.PayoutList, error) {
			if filters.SellerID != nil {
				t.Fatalf("expected unscoped list")
			}
			return &internalpayouts.PayoutList{}, nil
		},
	}
	req := asAdmin(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminList(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestApproveCarriesAdmin(t *testing.T) {
	adminID := uuid.New()
	payoutID := uuid.New()
	svc := stubPayoutsService{
		approveFn: func(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error) {
			if input.AdminID != adminID || input.PayoutID != payoutID {
				t.Fatalf("unexpected input %+v", input)
			}
			return &internalpayouts.PayoutDTO{ID: payoutID, Status: enums.PayoutStatusProcessing}, nil
		},
	}
	req := withPayoutParam(asAdmin(httptest.NewRequest(http.MethodPost, "/", nil), adminID), payoutID)
	resp := httptest.NewRecorder()
	Approve(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRejectRequiresReason(t *testing.T) {
	req := withPayoutParam(asAdmin(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), uuid.New()), uuid.New())
	resp := httptest.NewRecorder()
	Reject(stubPayoutsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRejectForwardsTrimmedReason(t *testing.T) {
	svc := stubPayoutsService{
		rejectFn: func(ctx context.Context, input internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error) {
			if input.Reason == nil || *input.Reason != "bank account closed" {
				t.Fatalf("unexpected reason %v", input.Reason)
			}
			return &internalpayouts.PayoutDTO{Status: enums.PayoutStatusFailed}, nil
		},
	}
	req := withPayoutParam(asAdmin(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"  bank account closed "}`)), uuid.New()), uuid.New())
	resp := httptest.NewRecorder()
	Reject(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
