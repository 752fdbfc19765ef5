package wallet

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Replay rebuilds a wallet from its transactions in creation order.
// It fails if an entry's balance_before does not continue the running total.
func Replay(userID uuid.UUID, txs []Transaction) (*Wallet, error) {
	w := &Wallet{
		UserID:           userID,
		TotalBalance:     decimal.Zero,
		SpendableBalance: decimal.Zero,
		LockedBalance:    decimal.Zero,
		LifetimeEarned:   decimal.Zero,
		LifetimeSpent:    decimal.Zero,
	}

	for i := range txs {
		t := &txs[i]
		if !t.BalanceBefore.Equal(w.TotalBalance) {
			return nil, fmt.Errorf("%w: transaction %s starts at %s, running total is %s",
				ErrLedgerMismatch, t.ID, t.BalanceBefore, w.TotalBalance)
		}

		switch {
		case t.Type.IsCredit():
			split := SplitCredit(t.Type, t.Amount)
			if t.Metadata.SpendableAmount != nil && t.Metadata.LockedAmount != nil {
				split = Split{Spendable: *t.Metadata.SpendableAmount, Locked: *t.Metadata.LockedAmount}
			}
			applyCredit(w, t.Amount, split)
		case t.Type.IsDebit():
			applyDebit(w, t.Amount.Abs())
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidTransactionType, t.Type)
		}

		if !t.BalanceAfter.Equal(w.TotalBalance) {
			return nil, fmt.Errorf("%w: transaction %s ends at %s, replay gives %s",
				ErrLedgerMismatch, t.ID, t.BalanceAfter, w.TotalBalance)
		}
	}
	return w, nil
}

func applyCredit(w *Wallet, amount decimal.Decimal, split Split) {
	w.TotalBalance = w.TotalBalance.Add(amount)
	w.SpendableBalance = w.SpendableBalance.Add(split.Spendable)
	w.LockedBalance = w.LockedBalance.Add(split.Locked)
	w.LifetimeEarned = w.LifetimeEarned.Add(amount)
}

func applyDebit(w *Wallet, amount decimal.Decimal) {
	w.TotalBalance = w.TotalBalance.Sub(amount)
	w.SpendableBalance = w.SpendableBalance.Sub(amount)
	w.LifetimeSpent = w.LifetimeSpent.Add(amount)
}
