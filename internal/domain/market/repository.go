package market

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const marketColumns = `id, total_pool_eur, circulating_supply, total_supply, locked_supply, burned_supply,
	token_value, market_cap, volume_24h, transactions_24h, price_change_percent_24h, created_at, updated_at`

const historyColumns = `id, interval, timestamp, token_value, circulating_supply, total_pool_eur,
	market_cap, volume, transactions`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ensure inserts the genesis row unless one already exists
func (r *Repository) Ensure(ctx context.Context, tx *sqlx.Tx, genesis MarketData) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO market_data (total_pool_eur, circulating_supply, total_supply, token_value, market_cap)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, genesis.TotalPoolEur, genesis.CirculatingSupply, genesis.TotalSupply, genesis.TokenValue, genesis.MarketCap)
	return err
}

// LockCurrent reads the current row and holds its lock until tx ends
func (r *Repository) LockCurrent(ctx context.Context, tx *sqlx.Tx) (*MarketData, error) {
	var md MarketData
	err := tx.GetContext(ctx, &md, `
		SELECT `+marketColumns+`
		FROM market_data
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// Current reads the current row without locking
func (r *Repository) Current(ctx context.Context) (*MarketData, error) {
	var md MarketData
	err := r.db.GetContext(ctx, &md, `
		SELECT `+marketColumns+`
		FROM market_data
		ORDER BY created_at DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// Save writes the locked row. updated_at uses clock_timestamp() so versions
// follow row-lock order rather than transaction start.
func (r *Repository) Save(ctx context.Context, tx *sqlx.Tx, md *MarketData) error {
	return tx.QueryRowxContext(ctx, `
		UPDATE market_data SET
			total_pool_eur = $2,
			circulating_supply = $3,
			total_supply = $4,
			locked_supply = $5,
			burned_supply = $6,
			token_value = $7,
			market_cap = $8,
			volume_24h = $9,
			transactions_24h = $10,
			price_change_percent_24h = $11,
			updated_at = clock_timestamp()
		WHERE id = $1
		RETURNING updated_at
	`, md.ID, md.TotalPoolEur, md.CirculatingSupply, md.TotalSupply, md.LockedSupply, md.BurnedSupply,
		md.TokenValue, md.MarketCap, md.Volume24h, md.Transactions24h, md.PriceChangePercent24h,
	).Scan(&md.UpdatedAt)
}

// InsertHistory writes a snapshot. It returns false when the bucket already has one.
func (r *Repository) InsertHistory(ctx context.Context, h *HistoryPoint) (bool, error) {
	rows, err := r.db.QueryxContext(ctx, `
		INSERT INTO market_history (interval, timestamp, token_value, circulating_supply, total_pool_eur,
			market_cap, volume, transactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (interval, timestamp) DO NOTHING
		RETURNING id
	`, h.Interval, h.Timestamp, h.TokenValue, h.CirculatingSupply, h.TotalPoolEur,
		h.MarketCap, h.Volume, h.Transactions)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(&h.ID); err != nil {
		return false, err
	}
	return true, nil
}

// ListHistory returns the newest limit snapshots of interval, newest first
func (r *Repository) ListHistory(ctx context.Context, interval Interval, limit int) ([]HistoryPoint, error) {
	points := []HistoryPoint{}
	err := r.db.SelectContext(ctx, &points, `
		SELECT `+historyColumns+`
		FROM market_history
		WHERE interval = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, interval, limit)
	return points, err
}

// RollingActivity sums ledger activity since the given time
func (r *Repository) RollingActivity(ctx context.Context, tx *sqlx.Tx, since time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Volume       decimal.Decimal `db:"volume"`
		Transactions int64           `db:"transactions"`
	}
	err := tx.GetContext(ctx, &row, `
		SELECT COALESCE(SUM(ABS(amount)), 0) AS volume, COUNT(*) AS transactions
		FROM transactions
		WHERE created_at >= $1
	`, since)
	return row.Volume, row.Transactions, err
}
