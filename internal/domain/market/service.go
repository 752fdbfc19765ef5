package market

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/logger"
	"github.com/luvy/luvy-api/internal/pkg/metrics"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	statsWindow         = 24
)

// Service is the only writer of market state. Mutating methods take the
// caller's transaction and lock the market row for its remaining lifetime.
type Service struct {
	db      *sqlx.DB
	repo    *Repository
	genesis MarketData
	cache   Cache
	now     func() time.Time
}

func NewService(db *sqlx.DB, repo *Repository, genesis Genesis, cache Cache) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		db:      db,
		repo:    repo,
		genesis: NewGenesis(genesis),
		cache:   cache,
		now:     time.Now,
	}
}

// Lock returns the current market row locked by tx, creating it on first use
func (s *Service) Lock(ctx context.Context, tx *sqlx.Tx) (*MarketData, error) {
	if err := s.repo.Ensure(ctx, tx, s.genesis); err != nil {
		return nil, fmt.Errorf("ensure market: %w", err)
	}
	md, err := s.repo.LockCurrent(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("lock market: %w", err)
	}
	return md, nil
}

// ApplyCreditSideEffects mints amount, lockedPortion of which is locked, and reprices
func (s *Service) ApplyCreditSideEffects(ctx context.Context, tx *database.Tx, amount, lockedPortion decimal.Decimal) (*MarketData, error) {
	md, err := s.Lock(ctx, tx.Tx)
	if err != nil {
		return nil, err
	}
	if err := md.ApplyCredit(amount, lockedPortion); err != nil {
		return nil, err
	}
	return md, s.save(ctx, tx, md)
}

// ApplyDebitSideEffects burns burnAmount, moves netToPool into the pool, and reprices
func (s *Service) ApplyDebitSideEffects(ctx context.Context, tx *database.Tx, burnAmount, netToPool decimal.Decimal) (*MarketData, error) {
	md, err := s.Lock(ctx, tx.Tx)
	if err != nil {
		return nil, err
	}
	if err := md.ApplyDebit(burnAmount, netToPool); err != nil {
		return nil, err
	}
	return md, s.save(ctx, tx, md)
}

// save persists md and publishes it once tx commits
func (s *Service) save(ctx context.Context, tx *database.Tx, md *MarketData) error {
	if err := s.repo.Save(ctx, tx.Tx, md); err != nil {
		return fmt.Errorf("save market: %w", err)
	}
	committed := *md
	tx.AfterCommit(func(ctx context.Context) {
		metrics.SetMarket(committed.TokenValue, committed.CirculatingSupply)
		s.cache.Set(ctx, &committed)
	})
	return nil
}

// Snapshot records the current market state under interval's current bucket
func (s *Service) Snapshot(ctx context.Context, interval Interval) (*HistoryPoint, error) {
	if !interval.Valid() {
		return nil, ErrInvalidInterval
	}

	md, err := s.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}

	point := &HistoryPoint{
		Interval:          interval,
		Timestamp:         interval.Bucket(s.now()),
		TokenValue:        md.TokenValue,
		CirculatingSupply: md.CirculatingSupply,
		TotalPoolEur:      md.TotalPoolEur,
		MarketCap:         md.MarketCap,
		Volume:            md.Volume24h,
		Transactions:      md.Transactions24h,
	}

	inserted, err := s.repo.InsertHistory(ctx, point)
	if err != nil {
		metrics.RecordSnapshot(string(interval), "failed")
		return nil, fmt.Errorf("insert history: %w", err)
	}
	if !inserted {
		metrics.RecordSnapshot(string(interval), "duplicate")
		return nil, ErrSnapshotExists
	}

	metrics.RecordSnapshot(string(interval), "success")
	logger.FromContext(ctx).Info().
		Str("interval", string(interval)).
		Time("bucket", point.Timestamp).
		Str("token_value", point.TokenValue.String()).
		Msg("Market snapshot recorded")
	return point, nil
}

// RefreshActivity recomputes the rolling 24h volume and count from the ledger
func (s *Service) RefreshActivity(ctx context.Context) (*MarketData, error) {
	var md *MarketData
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		md, err = s.Lock(ctx, tx.Tx)
		if err != nil {
			return err
		}

		volume, count, err := s.repo.RollingActivity(ctx, tx.Tx, s.now().Add(-24*time.Hour))
		if err != nil {
			return fmt.Errorf("rolling activity: %w", err)
		}
		md.Volume24h = volume
		md.Transactions24h = count

		return s.save(ctx, tx, md)
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}

// GetCurrent returns the current market state
func (s *Service) GetCurrent(ctx context.Context) (*MarketData, error) {
	if md, ok := s.cache.Get(ctx); ok {
		return md, nil
	}
	md, err := s.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, md)
	return md, nil
}

// GetHistory returns up to limit snapshots of interval in ascending time order
func (s *Service) GetHistory(ctx context.Context, interval Interval, limit int) ([]HistoryPoint, error) {
	if !interval.Valid() {
		return nil, ErrInvalidInterval
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	points, err := s.repo.ListHistory(ctx, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	slices.Reverse(points)
	return points, nil
}

// GetStats returns 24h change, high and low from the last 24 hourly snapshots
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	current, err := s.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}
	hourly, err := s.GetHistory(ctx, IntervalHour, statsWindow)
	if err != nil {
		return nil, err
	}
	stats := computeStats(*current, hourly)
	return &stats, nil
}

// loadCurrent reads the row, creating it when the market was never touched
func (s *Service) loadCurrent(ctx context.Context) (*MarketData, error) {
	md, err := s.repo.Current(ctx)
	if err == nil {
		return md, nil
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("read market: %w", err)
	}

	err = database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		md, err = s.Lock(ctx, tx.Tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("initialize market: %w", err)
	}
	return md, nil
}
