package wallet

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeEarn    TransactionType = "earn"
	TransactionTypeSpend   TransactionType = "spend"
	TransactionTypeRefund  TransactionType = "refund"
	TransactionTypeBonus   TransactionType = "bonus"
	TransactionTypePenalty TransactionType = "penalty"
)

// IsCredit reports whether t adds tokens to a wallet
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeEarn || t == TransactionTypeRefund || t == TransactionTypeBonus
}

// IsDebit reports whether t removes tokens from a wallet
func (t TransactionType) IsDebit() bool {
	return t == TransactionTypeSpend || t == TransactionTypePenalty
}

// Wallet holds one user's balances. TotalBalance always equals
// SpendableBalance + LockedBalance.
type Wallet struct {
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	TotalBalance     decimal.Decimal `db:"total_balance" json:"total_balance"`
	SpendableBalance decimal.Decimal `db:"spendable_balance" json:"spendable_balance"`
	LockedBalance    decimal.Decimal `db:"locked_balance" json:"locked_balance"`
	LifetimeEarned   decimal.Decimal `db:"lifetime_earned" json:"lifetime_earned"`
	LifetimeSpent    decimal.Decimal `db:"lifetime_spent" json:"lifetime_spent"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Balanced reports whether the balance partition holds
func (w *Wallet) Balanced() bool {
	return w.TotalBalance.Equal(w.SpendableBalance.Add(w.LockedBalance))
}

// SameBalances compares every balance field, ignoring timestamps
func (w *Wallet) SameBalances(o *Wallet) bool {
	return w.TotalBalance.Equal(o.TotalBalance) &&
		w.SpendableBalance.Equal(o.SpendableBalance) &&
		w.LockedBalance.Equal(o.LockedBalance) &&
		w.LifetimeEarned.Equal(o.LifetimeEarned) &&
		w.LifetimeSpent.Equal(o.LifetimeSpent)
}

// Transaction is one immutable ledger entry. Amount is positive for
// credits and negative for debits.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Seq           int64           `db:"seq" json:"-"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Type          TransactionType `db:"type" json:"type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Description   string          `db:"description" json:"description"`
	ReferenceType ReferenceKind   `db:"reference_type" json:"reference_type"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id,omitempty"`
	Metadata      Metadata        `db:"metadata" json:"metadata"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Reference decodes the polymorphic reference columns
func (t *Transaction) Reference() (Reference, error) {
	id := ""
	if t.ReferenceID != nil {
		id = *t.ReferenceID
	}
	return ParseReference(string(t.ReferenceType), id)
}

// Metadata records how a transaction was applied. Credits carry the
// spendable/locked split; debits carry the burn breakdown.
type Metadata struct {
	SpendableAmount *decimal.Decimal `json:"spendable_amount,omitempty"`
	LockedAmount    *decimal.Decimal `json:"locked_amount,omitempty"`
	BurnAmount      *decimal.Decimal `json:"burn_amount,omitempty"`
	NetToPool       *decimal.Decimal `json:"net_to_pool,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (m Metadata) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for JSONB storage
func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("wallet: unsupported metadata type")
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
