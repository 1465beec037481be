package earnings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketdesk-backend/api/middleware"
	internalearnings "github.com/angelmondragon/marketdesk-backend/internal/earnings"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
)

type stubEarningsService struct {
	summarizeFn  func(ctx context.Context, sellerID uuid.UUID, start, end *time.Time) (*internalearnings.Summary, error)
	commissionFn func(ctx context.Context, start, end *time.Time) (*internalearnings.CommissionReport, error)
}

func (s stubEarningsService) Summarize(ctx context.Context, sellerID uuid.UUID, start, end *time.Time) (*internalearnings.Summary, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, sellerID, start, end)
	}
	panic("not implemented")
}

func (s stubEarningsService) PlatformCommission(ctx context.Context, start, end *time.Time) (*internalearnings.CommissionReport, error) {
	if s.commissionFn != nil {
		return s.commissionFn(ctx, start, end)
	}
	panic("not implemented")
}

func (s stubEarningsService) CompletedNet(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (int64, error) {
	panic("not implemented")
}

func TestSellerSummaryUsesNamedPeriod(t *testing.T) {
	sellerID := uuid.New()
	svc := stubEarningsService{
		summarizeFn: func(ctx context.Context, gotSeller uuid.UUID, start, end *time.Time) (*internalearnings.Summary, error) {
			if gotSeller != sellerID {
				t.Fatalf("unexpected seller %s", gotSeller)
			}
			if start == nil || end == nil {
				t.Fatalf("expected bounded window")
			}
			if got := end.Sub(*start); got != 7*24*time.Hour {
				t.Fatalf("expected 7 day window got %v", got)
			}
			return &internalearnings.Summary{SellerID: gotSeller, CompletedRevenueCents: 57000}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?period=7d", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), string(enums.ActorRoleSeller), &sellerID))
	resp := httptest.NewRecorder()
	SellerSummary(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data internalearnings.Summary `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CompletedRevenueCents != 57000 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestSellerSummaryExplicitRange(t *testing.T) {
	sellerID := uuid.New()
	svc := stubEarningsService{
		summarizeFn: func(ctx context.Context, _ uuid.UUID, start, end *time.Time) (*internalearnings.Summary, error) {
			if start == nil || !start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected start %v", start)
			}
			if end != nil {
				t.Fatalf("expected open end, got %v", end)
			}
			return &internalearnings.Summary{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), string(enums.ActorRoleSeller), &sellerID))
	resp := httptest.NewRecorder()
	SellerSummary(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestSellerSummaryRejectsMixedWindow(t *testing.T) {
	sellerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?period=30d&from=2026-03-01", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), string(enums.ActorRoleSeller), &sellerID))
	resp := httptest.NewRecorder()
	SellerSummary(stubEarningsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSellerSummaryRejectsUnknownPeriod(t *testing.T) {
	sellerID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/?period=5y", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), string(enums.ActorRoleSeller), &sellerID))
	resp := httptest.NewRecorder()
	SellerSummary(stubEarningsService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminSellerSummaryReadsPathSeller(t *testing.T) {
	sellerID := uuid.New()
	svc := stubEarningsService{
		summarizeFn: func(ctx context.Context, gotSeller uuid.UUID, start, end *time.Time) (*internalearnings.Summary, error) {
			if gotSeller != sellerID {
				t.Fatalf("unexpected seller %s", gotSeller)
			}
			if start != nil {
				t.Fatalf("period all should be unbounded")
			}
			return &internalearnings.Summary{SellerID: gotSeller}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?period=all", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sellerId", sellerID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	resp := httptest.NewRecorder()
	AdminSellerSummary(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCommission(t *testing.T) {
	svc := stubEarningsService{
		commissionFn: func(ctx context.Context, start, end *time.Time) (*internalearnings.CommissionReport, error) {
			return &internalearnings.CommissionReport{GMVCents: 100000, CommissionCents: 10000, CommissionRate: "0.1"}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/?period=90d", nil)
	resp := httptest.NewRecorder()
	Commission(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data internalearnings.CommissionReport `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CommissionCents != 10000 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}
