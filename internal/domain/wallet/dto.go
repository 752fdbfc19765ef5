package wallet

import "github.com/shopspring/decimal"

// SpendRequest is a user-initiated spend. Users can only attach manual
// references; entity references are written by the services that own them.
type SpendRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"money_positive"`
	Description   string          `json:"description" validate:"max=255"`
	ReferenceType string          `json:"reference_type" validate:"omitempty,oneof=manual"`
	ReferenceID   string          `json:"reference_id" validate:"max=100"`
}

// AdjustRequest is an operator credit or debit
type AdjustRequest struct {
	Type        string          `json:"type" validate:"required,oneof=bonus refund penalty"`
	Amount      decimal.Decimal `json:"amount" validate:"money_positive"`
	Description string          `json:"description" validate:"required,max=255"`
	Key         string          `json:"key" validate:"max=100"`
}

type BalanceResponse struct {
	Total          decimal.Decimal `json:"total"`
	Spendable      decimal.Decimal `json:"spendable"`
	Locked         decimal.Decimal `json:"locked"`
	LifetimeEarned decimal.Decimal `json:"lifetime_earned"`
	LifetimeSpent  decimal.Decimal `json:"lifetime_spent"`
}

func BalanceResponseFromEntity(w *Wallet) BalanceResponse {
	return BalanceResponse{
		Total:          w.TotalBalance,
		Spendable:      w.SpendableBalance,
		Locked:         w.LockedBalance,
		LifetimeEarned: w.LifetimeEarned,
		LifetimeSpent:  w.LifetimeSpent,
	}
}
