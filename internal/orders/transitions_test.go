package orders

import (
	"testing"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
)

func TestOrderTransitionTableIsExhaustive(t *testing.T) {
	edges := map[enums.OrderStatus]map[enums.OrderStatus]bool{
		enums.OrderStatusPending:    {enums.OrderStatusConfirmed: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusProcessing: {enums.OrderStatusShipped: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusShipped:    {enums.OrderStatusDelivered: true, enums.OrderStatusReturned: true},
		enums.OrderStatusDelivered:  {enums.OrderStatusReturned: true},
	}

	for _, from := range enums.OrderStatuses() {
		for _, to := range enums.OrderStatuses() {
			want := edges[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
			err := ValidateTransition(from, to)
			if want && err != nil {
				t.Errorf("ValidateTransition(%s, %s) unexpected error %v", from, to, err)
			}
			if !want && !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
				t.Errorf("ValidateTransition(%s, %s) expected INVALID_TRANSITION, got %v", from, to, err)
			}
		}
	}
}

func TestPaymentTransitionTableIsExhaustive(t *testing.T) {
	edges := map[enums.PaymentStatus]map[enums.PaymentStatus]bool{
		enums.PaymentStatusPending: {enums.PaymentStatusPaid: true, enums.PaymentStatusFailed: true},
		enums.PaymentStatusPaid:    {enums.PaymentStatusRefunded: true},
		enums.PaymentStatusFailed:  {enums.PaymentStatusPaid: true},
	}

	for _, from := range enums.PaymentStatuses() {
		for _, to := range enums.PaymentStatuses() {
			want := edges[from][to]
			if got := CanTransitionPayment(from, to); got != want {
				t.Errorf("CanTransitionPayment(%s, %s) = %v, want %v", from, to, got, want)
			}
			if err := ValidatePaymentTransition(from, to); (err == nil) != want {
				t.Errorf("ValidatePaymentTransition(%s, %s) = %v, want allowed=%v", from, to, err, want)
			}
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusReturned} {
		if len(AllowedTransitions(status)) != 0 {
			t.Fatalf("%s should be terminal", status)
		}
	}
	if len(AllowedPaymentTransitions(enums.PaymentStatusRefunded)) != 0 {
		t.Fatalf("refunded should be terminal")
	}
}

func TestValidateTransitionDetailsNameStatuses(t *testing.T) {
	err := ValidateTransition(enums.OrderStatusPending, enums.OrderStatusDelivered)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Message() != "cannot change order status from pending to delivered" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["domain"] != DomainOrder || details["from"] != "pending" || details["to"] != "delivered" {
		t.Fatalf("unexpected details %v", details)
	}
	allowed, _ := details["allowed"].([]string)
	if len(allowed) != 2 || allowed[0] != "confirmed" || allowed[1] != "cancelled" {
		t.Fatalf("unexpected allowed list %v", details["allowed"])
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	allowed := AllowedTransitions(enums.OrderStatusPending)
	allowed[0] = enums.OrderStatusDelivered
	if !CanTransition(enums.OrderStatusPending, enums.OrderStatusConfirmed) {
		t.Fatalf("mutating the returned slice must not change the graph")
	}
}
