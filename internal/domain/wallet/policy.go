package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/money"
)

var (
	// SpendableRate is the share of an earn credit that is immediately spendable
	SpendableRate = decimal.RequireFromString("0.20")

	// BurnRate is the share of every debit removed from circulation
	BurnRate = decimal.RequireFromString("0.005")
)

// Split is how a credit is partitioned between spendable and locked balance
type Split struct {
	Spendable decimal.Decimal
	Locked    decimal.Decimal
}

// SplitCredit applies the vesting policy. Earned rewards are 20% spendable;
// bonuses and refunds are fully spendable. Spendable+Locked always equals amount.
func SplitCredit(t TransactionType, amount decimal.Decimal) Split {
	if t != TransactionTypeEarn {
		return Split{Spendable: amount, Locked: decimal.Zero}
	}
	spendable := money.Portion(amount, SpendableRate)
	return Split{Spendable: spendable, Locked: amount.Sub(spendable)}
}

// Burn is how a debit is divided between destroyed supply and the backing pool
type Burn struct {
	Burned    decimal.Decimal
	NetToPool decimal.Decimal
}

// BurnFor splits a debited amount. Burned+NetToPool always equals amount.
func BurnFor(amount decimal.Decimal) Burn {
	burned := money.Portion(amount, BurnRate)
	return Burn{Burned: burned, NetToPool: amount.Sub(burned)}
}
