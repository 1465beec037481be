package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/config"
	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/angelmondragon/marketdesk-backend/pkg/metrics"
	"github.com/angelmondragon/marketdesk-backend/pkg/outbox"
	"github.com/angelmondragon/marketdesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/marketdesk-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const admissionAdmitted = "admitted"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// EarningsReader supplies the all-time completed net revenue of a seller.
type EarningsReader interface {
	CompletedNet(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (int64, error)
}

// Service is the payout ledger.
type Service interface {
	AvailableBalance(ctx context.Context, sellerID uuid.UUID) (*Balance, error)
	RequestPayout(ctx context.Context, input RequestPayoutInput) (*PayoutDTO, error)
	CancelPayout(ctx context.Context, input CancelPayoutInput) (*PayoutDTO, error)
	ListPayouts(ctx context.Context, filters ListFilters, params pagination.Params) (*PayoutList, error)
	ApprovePayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error)
	CompletePayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error)
	RejectPayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	earnings  EarningsReader
	locker    SellerLocker
	metrics   *metrics.PayoutMetrics
	minAmount int64
	now       func() time.Time
}

// ServiceParams groups the payout ledger collaborators.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Earnings EarningsReader
	Locker   SellerLocker
	Metrics  *metrics.PayoutMetrics
	Config   config.PayoutsConfig
}

// NewService builds the payout ledger. Metrics are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings reader required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("seller locker required")
	}
	minAmount := params.Config.MinAmountCents
	if minAmount < 1 {
		minAmount = 1
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		earnings:  params.Earnings,
		locker:    params.Locker,
		metrics:   params.Metrics,
		minAmount: minAmount,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) AvailableBalance(ctx context.Context, sellerID uuid.UUID) (*Balance, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	return s.balance(ctx, nil, s.repo, sellerID)
}

func (s *service) balance(ctx context.Context, tx *gorm.DB, repo Repository, sellerID uuid.UUID) (*Balance, error) {
	completed, err := s.earnings.CompletedNet(ctx, tx, sellerID)
	if err != nil {
		return nil, err
	}
	reserved, err := repo.SumReserved(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved payouts")
	}
	return &Balance{
		SellerID:          sellerID,
		CompletedNetCents: completed,
		ReservedCents:     reserved,
		AvailableCents:    completed - reserved,
	}, nil
}

func (s *service) RequestPayout(ctx context.Context, input RequestPayoutInput) (*PayoutDTO, error) {
	payout, err := s.requestPayout(ctx, input)
	if err != nil {
		s.metrics.ObserveAdmission(strings.ToLower(string(pkgerrors.CodeOf(err))))
		return nil, err
	}
	s.metrics.ObserveAdmission(admissionAdmitted)
	return payout, nil
}

func (s *service) requestPayout(ctx context.Context, input RequestPayoutInput) (*PayoutDTO, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if input.AmountCents < s.minAmount {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAmount, "payout amount must be at least %d cents", s.minAmount).
			WithDetails(map[string]any{"amount_cents": input.AmountCents, "min_amount_cents": s.minAmount})
	}
	if err := input.BankDetails.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bank details")
	}

	waitStart := time.Now()
	release, err := s.locker.Lock(ctx, input.SellerID)
	s.metrics.ObserveLockWait(time.Since(waitStart))
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire payout lock")
	}
	defer release()

	var created *models.PayoutRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockSeller(ctx, input.SellerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock seller balance")
		}
		balance, err := s.balance(ctx, tx, repo, input.SellerID)
		if err != nil {
			return err
		}
		if input.AmountCents > balance.AvailableCents {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "requested amount exceeds available balance").
				WithDetails(map[string]any{
					"available_cents": balance.AvailableCents,
					"requested_cents": input.AmountCents,
				})
		}

		now := s.now()
		payout, err := repo.Create(ctx, &models.PayoutRequest{
			SellerID:    input.SellerID,
			AmountCents: input.AmountCents,
			Status:      enums.PayoutStatusPending,
			BankDetails: input.BankDetails,
			RequestedAt: now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout request")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         sellerRef(input.ActorUserID, input.SellerID),
			OccurredAt:    now,
			Data: payloads.PayoutRequestedEvent{
				PayoutID:       payout.ID,
				SellerID:       payout.SellerID,
				AmountCents:    payout.AmountCents,
				AvailableCents: balance.AvailableCents,
				RequestedAt:    now,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout requested event")
		}
		created = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewPayoutDTO(created)
	return &dto, nil
}

func (s *service) CancelPayout(ctx context.Context, input CancelPayoutInput) (*PayoutDTO, error) {
	if input.SellerID == uuid.Nil || input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id and payout id required")
	}

	var cancelled *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := repo.FindByID(ctx, input.PayoutID)
		if err != nil {
			return mapFindError(err)
		}
		if payout.SellerID != input.SellerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		if payout.Status != enums.PayoutStatusPending {
			return notPending(payout.Status)
		}

		now := s.now()
		updates := map[string]any{
			"status":       enums.PayoutStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		}
		rows, err := repo.UpdateStatusIfCurrent(ctx, payout.ID, enums.PayoutStatusPending, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payout")
		}
		if rows == 0 {
			current, err := repo.FindByID(ctx, payout.ID)
			if err != nil {
				return mapFindError(err)
			}
			return notPending(current.Status)
		}
		payout.Status = enums.PayoutStatusCancelled
		payout.CancelledAt = &now
		payout.UpdatedAt = now

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutCancelled,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         sellerRef(input.ActorUserID, input.SellerID),
			OccurredAt:    now,
			Data: payloads.PayoutCancelledEvent{
				PayoutID:    payout.ID,
				SellerID:    payout.SellerID,
				AmountCents: payout.AmountCents,
				CancelledAt: now,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout cancelled event")
		}
		cancelled = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition(string(enums.PayoutStatusCancelled))
	dto := NewPayoutDTO(cancelled)
	return &dto, nil
}

func (s *service) ListPayouts(ctx context.Context, filters ListFilters, params pagination.Params) (*PayoutList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return list, nil
}

func (s *service) ApprovePayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error) {
	return s.adminTransition(ctx, input, enums.PayoutStatusPending, enums.PayoutStatusProcessing, func(p *models.PayoutRequest, now time.Time, updates map[string]any) {
		admin := input.AdminID
		updates["processed_at"] = now
		updates["processed_by"] = admin
		p.ProcessedAt = &now
		p.ProcessedBy = &admin
	})
}

func (s *service) CompletePayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error) {
	return s.adminTransition(ctx, input, enums.PayoutStatusProcessing, enums.PayoutStatusCompleted, func(p *models.PayoutRequest, now time.Time, updates map[string]any) {
		updates["completed_at"] = now
		p.CompletedAt = &now
	})
}

func (s *service) RejectPayout(ctx context.Context, input AdminPayoutInput) (*PayoutDTO, error) {
	if input.Reason == nil || strings.TrimSpace(*input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	reason := strings.TrimSpace(*input.Reason)
	return s.adminTransition(ctx, input, enums.PayoutStatusPending, enums.PayoutStatusFailed, func(p *models.PayoutRequest, now time.Time, updates map[string]any) {
		updates["failure_reason"] = reason
		p.FailureReason = &reason
	})
}

type stampFunc func(p *models.PayoutRequest, now time.Time, updates map[string]any)

func (s *service) adminTransition(ctx context.Context, input AdminPayoutInput, from, to enums.PayoutStatus, stamp stampFunc) (*PayoutDTO, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var updated *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payout, err := repo.FindByID(ctx, input.PayoutID)
		if err != nil {
			return mapFindError(err)
		}
		if payout.Status != from {
			return invalidPayoutTransition(payout.Status, to)
		}

		now := s.now()
		updates := map[string]any{"status": to, "updated_at": now}
		stamp(payout, now, updates)
		rows, err := repo.UpdateStatusIfCurrent(ctx, payout.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "payout was modified concurrently").
				WithDetails(map[string]any{"payout_id": payout.ID, "expected_status": string(from)})
		}
		payout.Status = to
		payout.UpdatedAt = now

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutStatusChanged,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: string(enums.ActorRoleAdmin)},
			OccurredAt:    now,
			Data: payloads.PayoutStatusChangedEvent{
				PayoutID:      payout.ID,
				SellerID:      payout.SellerID,
				AmountCents:   payout.AmountCents,
				From:          from,
				To:            to,
				FailureReason: payout.FailureReason,
				ChangedAt:     now,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payout status event")
		}
		updated = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition(string(to))
	dto := NewPayoutDTO(updated)
	return &dto, nil
}

func sellerRef(userID, sellerID uuid.UUID) *outbox.ActorRef {
	seller := sellerID
	return &outbox.ActorRef{UserID: userID, SellerID: &seller, Role: string(enums.ActorRoleSeller)}
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
}

func notPending(status enums.PayoutStatus) error {
	return pkgerrors.New(pkgerrors.CodeNotPending, "only pending payouts can be cancelled").
		WithDetails(map[string]any{"status": string(status)})
}

func invalidPayoutTransition(from, to enums.PayoutStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot move payout from %s to %s", from, to).
		WithDetails(map[string]any{"domain": "payout", "from": string(from), "to": string(to)})
}
