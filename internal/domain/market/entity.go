package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Interval tags a history snapshot
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
	IntervalWeek   Interval = "week"
)

// Intervals lists every snapshot interval, shortest first
var Intervals = []Interval{IntervalMinute, IntervalHour, IntervalDay, IntervalWeek}

// Valid reports whether i is a known interval
func (i Interval) Valid() bool {
	switch i {
	case IntervalMinute, IntervalHour, IntervalDay, IntervalWeek:
		return true
	}
	return false
}

// Duration returns the bucket width of i
func (i Interval) Duration() time.Duration {
	switch i {
	case IntervalMinute:
		return time.Minute
	case IntervalHour:
		return time.Hour
	case IntervalDay:
		return 24 * time.Hour
	case IntervalWeek:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Bucket returns the start of the bucket containing t, in UTC
func (i Interval) Bucket(t time.Time) time.Time {
	return t.UTC().Truncate(i.Duration())
}

// MarketData is the single current price and supply record.
// It is only mutated through the Service while its row lock is held.
type MarketData struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	TotalPoolEur          decimal.Decimal `db:"total_pool_eur" json:"total_pool_eur"`
	CirculatingSupply     decimal.Decimal `db:"circulating_supply" json:"circulating_supply"`
	TotalSupply           decimal.Decimal `db:"total_supply" json:"total_supply"`
	LockedSupply          decimal.Decimal `db:"locked_supply" json:"locked_supply"`
	BurnedSupply          decimal.Decimal `db:"burned_supply" json:"burned_supply"`
	TokenValue            decimal.Decimal `db:"token_value" json:"token_value"`
	MarketCap             decimal.Decimal `db:"market_cap" json:"market_cap"`
	Volume24h             decimal.Decimal `db:"volume_24h" json:"volume_24h"`
	Transactions24h       int64           `db:"transactions_24h" json:"transactions_24h"`
	PriceChangePercent24h decimal.Decimal `db:"price_change_percent_24h" json:"price_change_percent_24h"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// HistoryPoint is an immutable snapshot of MarketData
type HistoryPoint struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	Interval          Interval        `db:"interval" json:"interval"`
	Timestamp         time.Time       `db:"timestamp" json:"timestamp"`
	TokenValue        decimal.Decimal `db:"token_value" json:"token_value"`
	CirculatingSupply decimal.Decimal `db:"circulating_supply" json:"circulating_supply"`
	TotalPoolEur      decimal.Decimal `db:"total_pool_eur" json:"total_pool_eur"`
	MarketCap         decimal.Decimal `db:"market_cap" json:"market_cap"`
	Volume            decimal.Decimal `db:"volume" json:"volume"`
	Transactions      int64           `db:"transactions" json:"transactions"`
}

// Stats summarizes the last 24 hourly snapshots
type Stats struct {
	Current        MarketData      `json:"current"`
	PriceChange24h decimal.Decimal `json:"price_change_24h"`
	High24h        decimal.Decimal `json:"high_24h"`
	Low24h         decimal.Decimal `json:"low_24h"`
	Samples        int             `json:"samples"`
}

// Genesis holds the values used to create the market row on first use
type Genesis struct {
	PoolEur decimal.Decimal
	Supply  decimal.Decimal
}

// DefaultGenesis is pool 100000.00 EUR over 1000000.00 tokens (0.10 EUR each)
func DefaultGenesis() Genesis {
	return Genesis{
		PoolEur: decimal.NewFromInt(100000),
		Supply:  decimal.NewFromInt(1000000),
	}
}
