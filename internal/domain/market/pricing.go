package market

import (
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/money"
)

// ValueScale is the number of fraction digits kept for token value
const ValueScale = 8

var (
	// FloorPrice is the token value when nothing circulates
	FloorPrice = decimal.RequireFromString("0.10")

	hundred = decimal.NewFromInt(100)
)

// TokenValue returns pool/circulating, or FloorPrice when circulating is zero
func TokenValue(pool, circulating decimal.Decimal) decimal.Decimal {
	if !circulating.IsPositive() {
		return FloorPrice
	}
	return pool.DivRound(circulating, ValueScale)
}

// PercentChange returns (next-prev)/prev*100 rounded to 4 digits, 0 when prev is 0
func PercentChange(prev, next decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return next.Sub(prev).Div(prev).Mul(hundred).Round(4)
}

// MarketCap returns circulating*value rounded to cents
func MarketCap(circulating, value decimal.Decimal) decimal.Decimal {
	return money.Round(circulating.Mul(value))
}

// NewGenesis builds the first market row
func NewGenesis(g Genesis) MarketData {
	value := TokenValue(g.PoolEur, g.Supply)
	return MarketData{
		TotalPoolEur:          g.PoolEur,
		CirculatingSupply:     g.Supply,
		TotalSupply:           g.Supply,
		LockedSupply:          decimal.Zero,
		BurnedSupply:          decimal.Zero,
		TokenValue:            value,
		MarketCap:             MarketCap(g.Supply, value),
		Volume24h:             decimal.Zero,
		PriceChangePercent24h: decimal.Zero,
	}
}

// ApplyCredit mints amount into circulation, lockedPortion of it held locked
func (m *MarketData) ApplyCredit(amount, lockedPortion decimal.Decimal) error {
	if !amount.IsPositive() || lockedPortion.IsNegative() || lockedPortion.GreaterThan(amount) {
		return ErrInvalidAdjustment
	}
	m.CirculatingSupply = m.CirculatingSupply.Add(amount)
	m.TotalSupply = m.TotalSupply.Add(amount)
	m.LockedSupply = m.LockedSupply.Add(lockedPortion)
	m.recordActivity(amount)
	m.reprice()
	return nil
}

// ApplyDebit burns burnAmount out of circulation and adds netToPool to the backing pool
func (m *MarketData) ApplyDebit(burnAmount, netToPool decimal.Decimal) error {
	if burnAmount.IsNegative() || netToPool.IsNegative() || burnAmount.Add(netToPool).IsZero() {
		return ErrInvalidAdjustment
	}
	if burnAmount.GreaterThan(m.CirculatingSupply) {
		return ErrSupplyUnderflow
	}
	m.CirculatingSupply = m.CirculatingSupply.Sub(burnAmount)
	m.BurnedSupply = m.BurnedSupply.Add(burnAmount)
	m.TotalPoolEur = m.TotalPoolEur.Add(netToPool)
	m.recordActivity(burnAmount.Add(netToPool))
	m.reprice()
	return nil
}

// Consistent reports whether the derived fields and supply bounds hold
func (m *MarketData) Consistent() bool {
	if m.TotalPoolEur.IsNegative() || m.CirculatingSupply.IsNegative() ||
		m.LockedSupply.IsNegative() || m.BurnedSupply.IsNegative() {
		return false
	}
	if m.TotalSupply.LessThan(m.CirculatingSupply) {
		return false
	}
	value := TokenValue(m.TotalPoolEur, m.CirculatingSupply)
	return m.TokenValue.Equal(value) && m.MarketCap.Equal(MarketCap(m.CirculatingSupply, value))
}

func (m *MarketData) reprice() {
	prev := m.TokenValue
	m.TokenValue = TokenValue(m.TotalPoolEur, m.CirculatingSupply)
	m.PriceChangePercent24h = PercentChange(prev, m.TokenValue)
	m.MarketCap = MarketCap(m.CirculatingSupply, m.TokenValue)
}

func (m *MarketData) recordActivity(volume decimal.Decimal) {
	m.Volume24h = m.Volume24h.Add(volume)
	m.Transactions24h++
}

// computeStats derives 24h figures from hourly snapshots in ascending order
func computeStats(current MarketData, hourly []HistoryPoint) Stats {
	stats := Stats{
		Current:        current,
		PriceChange24h: decimal.Zero,
		High24h:        current.TokenValue,
		Low24h:         current.TokenValue,
		Samples:        len(hourly),
	}
	if len(hourly) == 0 {
		return stats
	}

	stats.PriceChange24h = PercentChange(hourly[0].TokenValue, current.TokenValue).Round(2)
	stats.High24h = hourly[0].TokenValue
	stats.Low24h = hourly[0].TokenValue
	for _, h := range hourly[1:] {
		if h.TokenValue.GreaterThan(stats.High24h) {
			stats.High24h = h.TokenValue
		}
		if h.TokenValue.LessThan(stats.Low24h) {
			stats.Low24h = h.TokenValue
		}
	}
	return stats
}
