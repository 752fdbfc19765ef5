package market_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvy/luvy-api/internal/domain/market"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/database/dbtest"
)

func TestMarket_ConcurrentFirstUseCreatesOneRow(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := market.NewService(db, market.NewRepository(db), market.DefaultGenesis(), market.NewCache(nil))

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- database.WithTx(ctx, db, func(tx *database.Tx) error {
				_, err := svc.Lock(ctx, tx.Tx)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, db.Get(&rows, `SELECT count(*) FROM market_data`))
	assert.Equal(t, 1, rows)

	_, err := db.Exec(`INSERT INTO market_data (total_pool_eur, circulating_supply, total_supply, token_value)
		VALUES (1, 1, 1, 1)`)
	assert.True(t, database.IsUniqueViolation(err), "second market row: %v", err)

	md, err := svc.GetCurrent(ctx)
	require.NoError(t, err)
	assert.True(t, md.Consistent())
}

func TestMarket_SnapshotOncePerBucket(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc := market.NewService(db, market.NewRepository(db), market.DefaultGenesis(), market.NewCache(nil))

	point, err := svc.Snapshot(ctx, market.IntervalHour)
	require.NoError(t, err)

	_, err = svc.Snapshot(ctx, market.IntervalHour)
	assert.ErrorIs(t, err, market.ErrSnapshotExists)

	history, err := svc.GetHistory(ctx, market.IntervalHour, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, point.Timestamp.Equal(history[0].Timestamp))
	assert.True(t, point.TokenValue.Equal(history[0].TokenValue))

	days, err := svc.GetHistory(ctx, market.IntervalDay, 10)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestSchema_WalletBalancePartition(t *testing.T) {
	db := dbtest.Open(t)

	_, err := db.Exec(`INSERT INTO wallets (user_id, total_balance, spendable_balance, locked_balance)
		VALUES ($1, 10, 5, 0)`, uuid.New())
	assert.True(t, database.IsCheckViolation(err), "unbalanced wallet: %v", err)

	_, err = db.Exec(`INSERT INTO wallets (user_id, total_balance, spendable_balance, locked_balance)
		VALUES ($1, 10, 2, 8)`, uuid.New())
	assert.NoError(t, err)
}
