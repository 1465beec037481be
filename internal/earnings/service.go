package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketdesk-backend/pkg/config"
	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketdesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Summary is a seller's earnings snapshot for one window.
type Summary struct {
	SellerID              uuid.UUID  `json:"seller_id"`
	PeriodStart           *time.Time `json:"period_start,omitempty"`
	PeriodEnd             time.Time  `json:"period_end"`
	OrderCount            int        `json:"order_count"`
	TotalRevenueCents     int64      `json:"total_revenue_cents"`
	CompletedRevenueCents int64      `json:"completed_revenue_cents"`
	PendingRevenueCents   int64      `json:"pending_revenue_cents"`
	FailedRevenueCents    int64      `json:"failed_revenue_cents"`
	PlatformFeesCents     int64      `json:"platform_fees_cents"`
	NetRevenueCents       int64      `json:"net_revenue_cents"`
	PreviousRevenueCents  int64      `json:"previous_revenue_cents"`
	Growth                float64    `json:"growth"`
	FeeRate               string     `json:"fee_rate"`
	HoldDays              int        `json:"hold_days"`
}

// CommissionReport is the marketplace-wide commission over a window.
type CommissionReport struct {
	PeriodStart     *time.Time `json:"period_start,omitempty"`
	PeriodEnd       time.Time  `json:"period_end"`
	GMVCents        int64      `json:"gmv_cents"`
	CommissionCents int64      `json:"commission_cents"`
	CommissionRate  string     `json:"commission_rate"`
	SellerCount     int64      `json:"seller_count"`
	OrderCount      int64      `json:"order_count"`
}

// Service computes seller earnings from order data on demand.
type Service interface {
	Summarize(ctx context.Context, sellerID uuid.UUID, start, end *time.Time) (*Summary, error)
	PlatformCommission(ctx context.Context, start, end *time.Time) (*CommissionReport, error)
	// CompletedNet is the all-time net revenue past the hold window. A non-nil
	// tx reads inside the caller's transaction.
	CompletedNet(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (int64, error)
}

type service struct {
	repo           Repository
	feeRate        decimal.Decimal
	commissionRate decimal.Decimal
	hold           time.Duration
	holdDays       int
	now            func() time.Time
}

// NewService builds the earnings service with the configured rates.
func NewService(repo Repository, cfg config.EarningsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	return &service{
		repo:           repo,
		feeRate:        cfg.SellerFeeRate(),
		commissionRate: cfg.PlatformCommissionRate(),
		hold:           cfg.HoldDuration(),
		holdDays:       cfg.HoldDays,
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Summarize(ctx context.Context, sellerID uuid.UUID, start, end *time.Time) (*Summary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	now := s.now()
	period, err := resolvePeriod(start, end, now)
	if err != nil {
		return nil, err
	}

	// One grouped read covers the current window and the equal-length window
	// before it.
	queryStart := period.Start
	previous, hasPrevious := period.Previous()
	if hasPrevious {
		queryStart = previous.Start
	}
	rows, err := s.repo.SellerOrderTotals(ctx, sellerID, queryStart, period.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller order totals")
	}

	summary := &Summary{
		SellerID:    sellerID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		FeeRate:     s.feeRate.String(),
		HoldDays:    s.holdDays,
	}
	for _, row := range rows {
		if period.Start != nil && row.CreatedAt.Before(*period.Start) {
			summary.PreviousRevenueCents += row.SubtotalCents
			continue
		}
		amount := attributeSubtotal(row.SubtotalCents, s.feeRate)
		summary.OrderCount++
		summary.TotalRevenueCents += amount.SubtotalCents
		summary.PlatformFeesCents += amount.PlatformFeeCents
		switch classify(row.OrderStatus, row.DeliveredAt, s.hold, now) {
		case enums.EarningsClassCompleted:
			summary.CompletedRevenueCents += amount.NetCents
		case enums.EarningsClassFailed:
			summary.FailedRevenueCents += amount.NetCents
		default:
			summary.PendingRevenueCents += amount.NetCents
		}
	}
	summary.NetRevenueCents = summary.TotalRevenueCents - summary.PlatformFeesCents
	if hasPrevious {
		summary.Growth = Growth(summary.TotalRevenueCents, summary.PreviousRevenueCents)
	}
	return summary, nil
}

func (s *service) PlatformCommission(ctx context.Context, start, end *time.Time) (*CommissionReport, error) {
	period, err := resolvePeriod(start, end, s.now())
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CommissionTotals(ctx, period.Start, period.End)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission totals")
	}
	return &CommissionReport{
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		GMVCents:        totals.GMVCents,
		CommissionCents: FeeCents(totals.GMVCents, s.commissionRate),
		CommissionRate:  s.commissionRate.String(),
		SellerCount:     totals.SellerCount,
		OrderCount:      totals.OrderCount,
	}, nil
}

func (s *service) CompletedNet(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	cutoff := s.now().Add(-s.hold)
	rows, err := s.repo.WithTx(tx).DeliveredOrderTotals(ctx, sellerID, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivered order totals")
	}
	var net int64
	for _, row := range rows {
		net += attributeSubtotal(row.SubtotalCents, s.feeRate).NetCents
	}
	return net, nil
}

func resolvePeriod(start, end *time.Time, now time.Time) (Period, error) {
	period := Period{End: now}
	if end != nil {
		period.End = end.UTC()
	}
	if start != nil {
		s := start.UTC()
		if !s.Before(period.End) {
			return Period{}, pkgerrors.New(pkgerrors.CodeValidation, "period start must be before period end").
				WithDetails(map[string]any{"start": s, "end": period.End})
		}
		period.Start = &s
	}
	return period, nil
}
