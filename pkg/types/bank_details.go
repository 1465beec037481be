package types

import (
	"fmt"
	"strings"
)

// BankDetails is the destination of a payout, snapshotted on the request.
type BankDetails struct {
	AccountHolder string  `json:"account_holder" validate:"required,max=120"`
	AccountNumber string  `json:"account_number" validate:"required,min=4,max=34"`
	IFSC          string  `json:"ifsc" validate:"required,min=4,max=20"`
	BankName      string  `json:"bank_name" validate:"required,max=120"`
	UPIID         *string `json:"upi_id,omitempty" validate:"omitempty,max=100"`
}

// Validate checks the fields a payout destination must carry.
func (b BankDetails) Validate() error {
	if strings.TrimSpace(b.AccountHolder) == "" {
		return fmt.Errorf("bank details: missing account_holder")
	}
	if len(strings.TrimSpace(b.AccountNumber)) < 4 {
		return fmt.Errorf("bank details: account_number too short")
	}
	if strings.TrimSpace(b.IFSC) == "" {
		return fmt.Errorf("bank details: missing ifsc")
	}
	if strings.TrimSpace(b.BankName) == "" {
		return fmt.Errorf("bank details: missing bank_name")
	}
	return nil
}

// Masked returns a copy safe to return to clients and logs.
func (b BankDetails) Masked() BankDetails {
	masked := b
	number := strings.TrimSpace(b.AccountNumber)
	if len(number) > 4 {
		masked.AccountNumber = strings.Repeat("*", len(number)-4) + number[len(number)-4:]
	}
	return masked
}
