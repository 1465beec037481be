package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
)

func TestParseQueryTimeAcceptsDateAndTimestamp(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-02T10:30:00%2B02:00", nil)

	from, err := ParseQueryTime(req, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Fatalf("expected %s got %s", want, from)
	}

	to, err := ParseQueryTime(req, "to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if to.Location() != time.UTC || to.Hour() != 8 {
		t.Fatalf("timestamp should be normalized to UTC, got %s", to)
	}

	missing, err := ParseQueryTime(req, "absent")
	if err != nil || missing != nil {
		t.Fatalf("missing parameter should yield nil, got %v %v", missing, err)
	}
}

func TestParseQueryTimeRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil)
	if _, err := ParseQueryTime(req, "from"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	params, err := ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Limit != pagination.DefaultLimit || params.Cursor != "" {
		t.Fatalf("unexpected defaults %+v", params)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	if _, err := ParsePagination(req); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range limit to fail, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", id.String())
	got, err := ParseUUIDParam(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", "nope")
	if _, err := ParseUUIDParam(req, "orderId"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
