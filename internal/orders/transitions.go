package orders

import (
	"slices"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
)

const (
	DomainOrder   = "order"
	DomainPayment = "payment"
)

// orderTransitions lists the fulfillment edges. Statuses without an entry are
// terminal and self-transitions are never edges.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusReturned},
	enums.OrderStatusDelivered:  {enums.OrderStatusReturned},
}

var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending: {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusPaid:    {enums.PaymentStatusRefunded},
	enums.PaymentStatusFailed:  {enums.PaymentStatusPaid},
}

// CanTransition reports whether an order may move from one fulfillment status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	return slices.Contains(orderTransitions[from], to)
}

// CanTransitionPayment reports whether payment may move from one status to another.
func CanTransitionPayment(from, to enums.PaymentStatus) bool {
	return slices.Contains(paymentTransitions[from], to)
}

// AllowedTransitions returns the statuses reachable from from in one step.
func AllowedTransitions(from enums.OrderStatus) []enums.OrderStatus {
	return slices.Clone(orderTransitions[from])
}

// AllowedPaymentTransitions returns the payment statuses reachable from from in one step.
func AllowedPaymentTransitions(from enums.PaymentStatus) []enums.PaymentStatus {
	return slices.Clone(paymentTransitions[from])
}

// ValidateTransition returns an INVALID_TRANSITION error naming both statuses
// when the edge does not exist.
func ValidateTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot change order status from %s to %s", from, to).
		WithDetails(transitionDetails(DomainOrder, string(from), string(to), AllowedTransitions(from)))
}

// ValidatePaymentTransition is ValidateTransition for the payment graph.
func ValidatePaymentTransition(from, to enums.PaymentStatus) error {
	if CanTransitionPayment(from, to) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot change payment status from %s to %s", from, to).
		WithDetails(transitionDetails(DomainPayment, string(from), string(to), AllowedPaymentTransitions(from)))
}

func transitionDetails[S ~string](domain, from, to string, allowed []S) map[string]any {
	names := make([]string, 0, len(allowed))
	for _, status := range allowed {
		names = append(names, string(status))
	}
	return map[string]any{
		"domain":  domain,
		"from":    from,
		"to":      to,
		"allowed": names,
	}
}
