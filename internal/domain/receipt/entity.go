package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Receipt is one purchase submission. LuvyEarned is fixed at submission
// and credited unchanged on approval.
type Receipt struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	MerchantID  *uuid.UUID      `db:"merchant_id" json:"merchant_id,omitempty"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency    string          `db:"currency" json:"currency"`
	ReceiptDate time.Time       `db:"receipt_date" json:"receipt_date"`
	Status      Status          `db:"status" json:"status"`
	LuvyEarned  decimal.Decimal `db:"luvy_earned" json:"luvy_earned"`
	IsPfand     bool            `db:"is_pfand" json:"is_pfand"`
	PfandAmount decimal.Decimal `db:"pfand_amount" json:"pfand_amount"`
	ImageRef    *string         `db:"image_ref" json:"image_ref,omitempty"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
