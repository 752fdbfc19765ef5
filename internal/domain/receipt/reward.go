package receipt

import (
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/money"
)

var (
	// BaseMultiplier is the tokens earned per unit of currency spent
	BaseMultiplier = decimal.NewFromInt(2)

	// PfandMultiplier boosts receipts that include a bottle deposit
	PfandMultiplier = decimal.RequireFromString("1.1")
)

// RewardFor returns the tokens a receipt earns, rounded to cents
func RewardFor(total decimal.Decimal, isPfand bool) decimal.Decimal {
	reward := total.Mul(BaseMultiplier)
	if isPfand {
		reward = reward.Mul(PfandMultiplier)
	}
	return money.Round(reward)
}
