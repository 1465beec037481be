package payouts

import (
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/db/models"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/types"
	"github.com/google/uuid"
)

// Balance breaks the available figure into its parts.
type Balance struct {
	SellerID          uuid.UUID `json:"seller_id"`
	CompletedNetCents int64     `json:"completed_net_cents"`
	ReservedCents     int64     `json:"reserved_cents"`
	AvailableCents    int64     `json:"available_cents"`
}

type RequestPayoutInput struct {
	SellerID    uuid.UUID
	ActorUserID uuid.UUID
	AmountCents int64
	BankDetails types.BankDetails
}

type CancelPayoutInput struct {
	SellerID    uuid.UUID
	ActorUserID uuid.UUID
	PayoutID    uuid.UUID
}

// AdminPayoutInput drives approve, complete, and reject.
type AdminPayoutInput struct {
	PayoutID uuid.UUID
	AdminID  uuid.UUID
	Reason   *string
}

// ListFilters narrows payout lists. A nil SellerID lists across sellers.
type ListFilters struct {
	SellerID *uuid.UUID
	Status   *enums.PayoutStatus
}

// PayoutDTO is the API view of a payout; bank details are masked.
type PayoutDTO struct {
	ID            uuid.UUID          `json:"id"`
	SellerID      uuid.UUID          `json:"seller_id"`
	AmountCents   int64              `json:"amount_cents"`
	Status        enums.PayoutStatus `json:"status"`
	BankDetails   types.BankDetails  `json:"bank_details"`
	RequestedAt   time.Time          `json:"requested_at"`
	ProcessedAt   *time.Time         `json:"processed_at,omitempty"`
	ProcessedBy   *uuid.UUID         `json:"processed_by,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	FailureReason *string            `json:"failure_reason,omitempty"`
}

type PayoutList struct {
	Payouts    []PayoutDTO `json:"payouts"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewPayoutDTO maps the stored row to its API view.
func NewPayoutDTO(p *models.PayoutRequest) PayoutDTO {
	return PayoutDTO{
		ID:            p.ID,
		SellerID:      p.SellerID,
		AmountCents:   p.AmountCents,
		Status:        p.Status,
		BankDetails:   p.BankDetails.Masked(),
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
		ProcessedBy:   p.ProcessedBy,
		CompletedAt:   p.CompletedAt,
		CancelledAt:   p.CancelledAt,
		FailureReason: p.FailureReason,
	}
}
