package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketdesk-backend/pkg/enums"
	"github.com/angelmondragon/marketdesk-backend/pkg/types"
)

// PayoutRequest is a seller withdrawal. Rows are never deleted.
type PayoutRequest struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	Status        enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	BankDetails   types.BankDetails  `gorm:"column:bank_details;type:jsonb;serializer:json;not null"`
	RequestedAt   time.Time          `gorm:"column:requested_at;not null"`
	ProcessedAt   *time.Time         `gorm:"column:processed_at"`
	ProcessedBy   *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	CancelledAt   *time.Time         `gorm:"column:cancelled_at"`
	FailureReason *string            `gorm:"column:failure_reason"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PayoutRequest) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
