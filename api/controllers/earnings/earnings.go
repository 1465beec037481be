package earnings

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketdesk-backend/api/middleware"
	"github.com/angelmondragon/marketdesk-backend/api/responses"
	"github.com/angelmondragon/marketdesk-backend/api/validators"
	internalearnings "github.com/angelmondragon/marketdesk-backend/internal/earnings"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/logger"
)

// SellerSummary returns the calling seller's earnings for ?period= or ?from=&to=.
func SellerSummary(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		raw := middleware.SellerIDFromContext(r.Context())
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing"))
			return
		}
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid seller id"))
			return
		}

		writeSummary(w, r, svc, sellerID, logg)
	}
}

// AdminSellerSummary returns any seller's earnings by path parameter.
func AdminSellerSummary(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeSummary(w, r, svc, sellerID, logg)
	}
}

// Commission returns the marketplace commission report for the window.
func Commission(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		start, end, err := resolveWindow(r, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.PlatformCommission(r.Context(), start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func writeSummary(w http.ResponseWriter, r *http.Request, svc internalearnings.Service, sellerID uuid.UUID, logg *logger.Logger) {
	start, end, err := resolveWindow(r, time.Now().UTC())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	summary, err := svc.Summarize(r.Context(), sellerID, start, end)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, summary)
}

// resolveWindow prefers explicit from/to bounds and falls back to a named
// period. Mixing the two is rejected.
func resolveWindow(r *http.Request, now time.Time) (*time.Time, *time.Time, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return nil, nil, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return nil, nil, err
	}
	name := strings.TrimSpace(r.URL.Query().Get("period"))

	if from != nil || to != nil {
		if name != "" {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "use either period or from/to")
		}
		return from, to, nil
	}

	period, err := internalearnings.ParsePeriod(name, now)
	if err != nil {
		return nil, nil, err
	}
	end := period.End
	return period.Start, &end, nil
}
