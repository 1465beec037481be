package payouts

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketdesk-backend/api/middleware"
	"github.com/angelmondragon/marketdesk-backend/api/responses"
	"github.com/angelmondragon/marketdesk-backend/api/validators"
	internalpayouts "github.com/angelmondragon/marketdesk-backend/internal/payouts"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/logger"
	"github.com/angelmondragon/marketdesk-backend/pkg/types"
)

type requestPayoutRequest struct {
	AmountCents int64             `json:"amount_cents"`
	BankDetails types.BankDetails `json:"bank_details"`
}

type rejectPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type caller struct {
	userID   uuid.UUID
	sellerID uuid.UUID
}

// Balance returns the seller's available payout balance and its parts.
func Balance(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		c, err := sellerCaller(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.AvailableBalance(r.Context(), c.sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// List pages the seller's payout requests, newest first.
func List(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		c, err := sellerCaller(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.SellerID = &c.sellerID

		writeList(w, r, svc, filters, logg)
	}
}

// AdminList pages payout requests across sellers, optionally narrowed by
// ?seller_id= and ?status=.
func AdminList(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		filters, err := parseStatusFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			sellerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id"))
				return
			}
			filters.SellerID = &sellerID
		}

		writeList(w, r, svc, filters, logg)
	}
}

// Create admits a payout request against the available balance.
func Create(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		c, err := sellerCaller(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload requestPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.RequestPayout(r.Context(), internalpayouts.RequestPayoutInput{
			SellerID:    c.sellerID,
			ActorUserID: c.userID,
			AmountCents: payload.AmountCents,
			BankDetails: payload.BankDetails,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// Cancel withdraws one of the seller's pending payout requests.
func Cancel(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		c, err := sellerCaller(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutID, err := validators.ParseUUIDParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.CancelPayout(r.Context(), internalpayouts.CancelPayoutInput{
			SellerID:    c.sellerID,
			ActorUserID: c.userID,
			PayoutID:    payoutID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

func Approve(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, false, internalpayouts.Service.ApprovePayout)
}

func Complete(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, false, internalpayouts.Service.CompletePayout)
}

// Reject fails a pending payout; the body must carry a reason.
func Reject(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, true, internalpayouts.Service.RejectPayout)
}

type adminAction func(internalpayouts.Service, context.Context, internalpayouts.AdminPayoutInput) (*internalpayouts.PayoutDTO, error)

func adminTransition(svc internalpayouts.Service, logg *logger.Logger, needsReason bool, action adminAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}
		adminID, err := userFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutID, err := validators.ParseUUIDParam(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalpayouts.AdminPayoutInput{PayoutID: payoutID, AdminID: adminID}
		if needsReason {
			var payload rejectPayoutRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			reason := strings.TrimSpace(payload.Reason)
			input.Reason = &reason
		}

		payout, err := action(svc, r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

func writeList(w http.ResponseWriter, r *http.Request, svc internalpayouts.Service, filters internalpayouts.ListFilters, logg *logger.Logger) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	list, err := svc.ListPayouts(r.Context(), filters, params)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, list)
}

func parseStatusFilter(r *http.Request) (internalpayouts.ListFilters, error) {
	var filters internalpayouts.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParsePayoutStatus(strings.ToLower(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	return filters, nil
}

func userFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func sellerCaller(r *http.Request) (caller, error) {
	userID, err := userFromRequest(r)
	if err != nil {
		return caller{}, err
	}
	raw := middleware.SellerIDFromContext(r.Context())
	if raw == "" {
		return caller{}, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	sellerID, err := uuid.Parse(raw)
	if err != nil {
		return caller{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid seller id")
	}
	return caller{userID: userID, sellerID: sellerID}, nil
}
