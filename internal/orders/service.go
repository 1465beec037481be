package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// maxStatusAttempts bounds how often a lost conditional update is retried.
const maxStatusAttempts = 3

var errStatusRace = errors.New("order status changed concurrently")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the order lifecycle operations.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters Filters) (*SellerOrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewService builds the order lifecycle service. Metrics are optional.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, orderMetrics *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		metrics: orderMetrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": string(input.Status)})
	}
	if err := validateActor(input.Actor); err != nil {
		return nil, err
	}
	notes := trimmed(input.Notes)
	if input.Status == enums.OrderStatusCancelled && notes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	tracking := trimmed(input.TrackingNumber)

	var updated *models.Order
	err := s.withRetry(ctx, DomainOrder, string(input.Status), func(tx *gorm.DB, repo Repository) (string, error) {
		order, err := s.loadForActor(ctx, repo, input.OrderID, input.Actor)
		if err != nil {
			return "", err
		}
		from := order.OrderStatus
		if err := ValidateTransition(from, input.Status); err != nil {
			s.metrics.ObserveTransition(DomainOrder, string(from), string(input.Status), metrics.ResultRejected)
			return string(from), err
		}

		now := s.now()
		updates := map[string]any{
			"order_status": input.Status,
			"updated_at":   now,
		}
		paymentFrom := order.PaymentStatus
		paymentTo := paymentFrom

		switch input.Status {
		case enums.OrderStatusConfirmed:
			stampOnce(updates, "confirmed_at", order.ConfirmedAt, now)
		case enums.OrderStatusShipped:
			stampOnce(updates, "shipped_at", order.ShippedAt, now)
			if tracking != nil {
				updates["tracking_number"] = *tracking
			}
		case enums.OrderStatusDelivered:
			stampOnce(updates, "delivered_at", order.DeliveredAt, now)
			if paymentFrom != enums.PaymentStatusPaid {
				if err := ValidatePaymentTransition(paymentFrom, enums.PaymentStatusPaid); err != nil {
					s.metrics.ObserveTransition(DomainPayment, string(paymentFrom), string(enums.PaymentStatusPaid), metrics.ResultRejected)
					return string(from), err
				}
				paymentTo = enums.PaymentStatusPaid
				updates["payment_status"] = paymentTo
			}
		case enums.OrderStatusCancelled:
			stampOnce(updates, "cancelled_at", order.CancelledAt, now)
			updates["cancellation_reason"] = *notes
		case enums.OrderStatusReturned:
			stampOnce(updates, "returned_at", order.ReturnedAt, now)
		}

		rows, err := repo.UpdateStatusIfUnchanged(ctx, order.ID, from, paymentFrom, updates)
		if err != nil {
			return string(from), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if rows == 0 {
			return string(from), errStatusRace
		}
		applyUpdates(order, updates)

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor.outboxRef(),
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				From:           from,
				To:             input.Status,
				PaymentStatus:  order.PaymentStatus,
				SellerIDs:      sellerIDs(order),
				TrackingNumber: order.TrackingNumber,
				Reason:         notes,
				ChangedAt:      now,
			},
		}); err != nil {
			return string(from), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
		}
		if paymentTo != paymentFrom {
			if err := s.emitPaymentChanged(ctx, tx, order.ID, input.Actor, paymentFrom, paymentTo, true, now); err != nil {
				return string(from), err
			}
			s.metrics.ObserveTransition(DomainPayment, string(paymentFrom), string(paymentTo), metrics.ResultApplied)
		}
		s.metrics.ObserveTransition(DomainOrder, string(from), string(input.Status), metrics.ResultApplied)
		updated = order
		return string(from), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, input UpdatePaymentStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
			WithDetails(map[string]any{"status": string(input.Status)})
	}
	if err := validateActor(input.Actor); err != nil {
		return nil, err
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment status is managed by admins")
	}

	var updated *models.Order
	err := s.withRetry(ctx, DomainPayment, string(input.Status), func(tx *gorm.DB, repo Repository) (string, error) {
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			return "", mapFindError(err)
		}
		from := order.PaymentStatus
		if err := ValidatePaymentTransition(from, input.Status); err != nil {
			s.metrics.ObserveTransition(DomainPayment, string(from), string(input.Status), metrics.ResultRejected)
			return string(from), err
		}

		now := s.now()
		updates := map[string]any{
			"payment_status": input.Status,
			"updated_at":     now,
		}
		rows, err := repo.UpdateStatusIfUnchanged(ctx, order.ID, order.OrderStatus, from, updates)
		if err != nil {
			return string(from), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if rows == 0 {
			return string(from), errStatusRace
		}
		applyUpdates(order, updates)

		if err := s.emitPaymentChanged(ctx, tx, order.ID, input.Actor, from, input.Status, false, now); err != nil {
			return string(from), err
		}
		s.metrics.ObserveTransition(DomainPayment, string(from), string(input.Status), metrics.ResultApplied)
		updated = order
		return string(from), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns the order. Sellers only see their own line items.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	order, err := s.loadForActor(ctx, s.repo, orderID, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		order.Items = order.SellerItems(*actor.SellerID)
	}
	return order, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters Filters) (*SellerOrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	if filters.DateFrom != nil && filters.DateTo != nil && !filters.DateFrom.Before(*filters.DateTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_from must be before date_to")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.ListSellerOrders(ctx, sellerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

// withRetry runs attempt in its own transaction until it stops losing the
// conditional update race or the attempt budget is spent.
func (s *service) withRetry(ctx context.Context, domain, to string, attempt func(tx *gorm.DB, repo Repository) (string, error)) error {
	var from string
	for i := 0; i < maxStatusAttempts; i++ {
		var observedFrom string
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			observedFrom, err = attempt(tx, s.repo.WithTx(tx))
			return err
		})
		if errors.Is(err, errStatusRace) {
			from = observedFrom
			s.metrics.IncRetry()
			continue
		}
		return err
	}
	s.metrics.ObserveTransition(domain, from, to, metrics.ResultConflict)
	return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently, retry the request").
		WithDetails(map[string]any{"attempts": maxStatusAttempts})
}

func (s *service) loadForActor(ctx context.Context, repo Repository, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapFindError(err)
	}
	if !actor.CanAccess(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unauthorized order access")
	}
	return order, nil
}

func (s *service) emitPaymentChanged(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor Actor, from, to enums.PaymentStatus, implicit bool, now time.Time) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor.outboxRef(),
		OccurredAt:    now,
		Data: payloads.PaymentStatusChangedEvent{
			OrderID:   orderID,
			From:      from,
			To:        to,
			Implicit:  implicit,
			ChangedAt: now,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment status event")
	}
	return nil
}

func validateActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleSeller:
		if actor.SellerID == nil || *actor.SellerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unsupported actor role")
	}
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func stampOnce(updates map[string]any, column string, existing *time.Time, now time.Time) {
	if existing == nil {
		updates[column] = now
	}
}

func applyUpdates(order *models.Order, updates map[string]any) {
	for column, value := range updates {
		switch column {
		case "order_status":
			order.OrderStatus = value.(enums.OrderStatus)
		case "payment_status":
			order.PaymentStatus = value.(enums.PaymentStatus)
		case "updated_at":
			order.UpdatedAt = value.(time.Time)
		case "tracking_number":
			tracking := value.(string)
			order.TrackingNumber = &tracking
		case "cancellation_reason":
			reason := value.(string)
			order.CancellationReason = &reason
		case "confirmed_at":
			order.ConfirmedAt = timePtr(value)
		case "shipped_at":
			order.ShippedAt = timePtr(value)
		case "delivered_at":
			order.DeliveredAt = timePtr(value)
		case "cancelled_at":
			order.CancelledAt = timePtr(value)
		case "returned_at":
			order.ReturnedAt = timePtr(value)
		}
	}
}

func timePtr(value any) *time.Time {
	t := value.(time.Time)
	return &t
}

func sellerIDs(order *models.Order) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(order.Items))
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		ids = append(ids, item.SellerID)
	}
	return ids
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
