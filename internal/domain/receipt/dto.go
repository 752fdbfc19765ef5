package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubmitRequest struct {
	MerchantID  *uuid.UUID      `json:"merchant_id"`
	TotalAmount decimal.Decimal `json:"total_amount" validate:"money_positive"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
	ReceiptDate time.Time       `json:"receipt_date" validate:"required"`
	IsPfand     bool            `json:"is_pfand"`
	PfandAmount decimal.Decimal `json:"pfand_amount" validate:"money_nonneg"`
	ImageRef    *string         `json:"image_ref" validate:"omitempty,max=500"`
}

func (req *SubmitRequest) ToInput(userID uuid.UUID) SubmitInput {
	return SubmitInput{
		UserID:      userID,
		MerchantID:  req.MerchantID,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		ReceiptDate: req.ReceiptDate,
		IsPfand:     req.IsPfand,
		PfandAmount: req.PfandAmount,
		ImageRef:    req.ImageRef,
	}
}

type ApproveRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}
