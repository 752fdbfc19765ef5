package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/domain/market"
	"github.com/luvy/luvy-api/internal/pkg/apperr"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/events"
	"github.com/luvy/luvy-api/internal/pkg/logger"
	"github.com/luvy/luvy-api/internal/pkg/metrics"
	"github.com/luvy/luvy-api/internal/pkg/money"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// PricingEngine applies the supply side of a ledger mutation in the same transaction
type PricingEngine interface {
	ApplyCreditSideEffects(ctx context.Context, tx *database.Tx, amount, lockedPortion decimal.Decimal) (*market.MarketData, error)
	ApplyDebitSideEffects(ctx context.Context, tx *database.Tx, burnAmount, netToPool decimal.Decimal) (*market.MarketData, error)
}

// DebitObserver reacts to a user spend inside its transaction. An error rolls the spend back.
type DebitObserver interface {
	AfterDebit(ctx context.Context, tx *database.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

// CreditRequest describes tokens added to a wallet
type CreditRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
	Reference   Reference
}

// DebitRequest describes tokens removed from a wallet
type DebitRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
	Reference   Reference
}

// Result is the state written by one credit or debit
type Result struct {
	Wallet      *Wallet            `json:"wallet"`
	Transaction *Transaction       `json:"transaction"`
	Market      *market.MarketData `json:"-"`
}

// Verification compares a stored wallet with its ledger replay
type Verification struct {
	UserID       uuid.UUID `json:"user_id"`
	Stored       *Wallet   `json:"stored"`
	Replayed     *Wallet   `json:"replayed"`
	Transactions int       `json:"transactions"`
	Consistent   bool      `json:"consistent"`
}

type Service struct {
	db        *sqlx.DB
	repo      *Repository
	pricing   PricingEngine
	publisher events.Publisher
	observers []DebitObserver
}

func NewService(db *sqlx.DB, repo *Repository, pricing PricingEngine, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{db: db, repo: repo, pricing: pricing, publisher: publisher}
}

// AddDebitObserver registers o to run inside every spend transaction
func (s *Service) AddDebitObserver(o DebitObserver) {
	s.observers = append(s.observers, o)
}

// Credit adds tokens in its own transaction
func (s *Service) Credit(ctx context.Context, req CreditRequest) (*Result, error) {
	started := time.Now()
	var res *Result
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		res, err = s.CreditTx(ctx, tx, req)
		return err
	})
	metrics.RecordLedgerOperation("credit", outcome(err), started)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreditTx adds tokens within tx. The wallet is created if absent; the
// market row is updated in the same transaction.
func (s *Service) CreditTx(ctx context.Context, tx *database.Tx, req CreditRequest) (*Result, error) {
	if !req.Type.IsCredit() {
		return nil, fmt.Errorf("%w: %q is not a credit", ErrInvalidTransactionType, req.Type)
	}
	if err := money.ValidatePositive(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	w, err := s.repo.LockWallet(ctx, tx.Tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}

	split := SplitCredit(req.Type, req.Amount)
	before := w.TotalBalance
	applyCredit(w, req.Amount, split)

	if err := s.repo.Update(ctx, tx.Tx, w); err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}

	refKind, refID := referenceColumns(req.Reference)
	t := &Transaction{
		UserID:        req.UserID,
		Type:          req.Type,
		Amount:        req.Amount,
		BalanceBefore: before,
		BalanceAfter:  w.TotalBalance,
		Description:   req.Description,
		ReferenceType: refKind,
		ReferenceID:   refID,
		Metadata: Metadata{
			SpendableAmount: decimalPtr(split.Spendable),
			LockedAmount:    decimalPtr(split.Locked),
		},
	}
	if err := s.repo.InsertTransaction(ctx, tx.Tx, t); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	md, err := s.pricing.ApplyCreditSideEffects(ctx, tx, req.Amount, split.Locked)
	if err != nil {
		return nil, err
	}

	tx.AfterCommit(func(ctx context.Context) {
		metrics.RecordReward(string(refKind), req.Amount)
		logger.FromContext(ctx).Info().
			Str("user_id", req.UserID.String()).
			Str("type", string(req.Type)).
			Str("amount", req.Amount.String()).
			Str("spendable", split.Spendable.String()).
			Str("locked", split.Locked.String()).
			Str("reference_type", string(refKind)).
			Str("transaction_id", t.ID.String()).
			Msg("Wallet credited")
		s.publisher.Publish(ctx, events.New(events.WalletCredited, req.UserID, map[string]any{
			"transaction_id": t.ID,
			"type":           req.Type,
			"amount":         req.Amount,
			"total_balance":  w.TotalBalance,
		}))
	})

	return &Result{Wallet: w, Transaction: t, Market: md}, nil
}

// Debit removes tokens in its own transaction
func (s *Service) Debit(ctx context.Context, req DebitRequest) (*Result, error) {
	started := time.Now()
	var res *Result
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		var err error
		res, err = s.DebitTx(ctx, tx, req)
		return err
	})
	metrics.RecordLedgerOperation("debit", outcome(err), started)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DebitTx removes tokens from the spendable balance within tx. Locked
// funds are never debited. The burn leaves circulation and the rest
// goes to the backing pool.
func (s *Service) DebitTx(ctx context.Context, tx *database.Tx, req DebitRequest) (*Result, error) {
	if !req.Type.IsDebit() {
		return nil, fmt.Errorf("%w: %q is not a debit", ErrInvalidTransactionType, req.Type)
	}
	if err := money.ValidatePositive(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}

	w, err := s.repo.FindForUpdate(ctx, tx.Tx, req.UserID)
	if database.IsNoRows(err) {
		return nil, ErrInsufficientBalance
	}
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if w.SpendableBalance.LessThan(req.Amount) {
		return nil, ErrInsufficientBalance
	}

	burn := BurnFor(req.Amount)
	before := w.TotalBalance
	applyDebit(w, req.Amount)

	if err := s.repo.Update(ctx, tx.Tx, w); err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}

	refKind, refID := referenceColumns(req.Reference)
	t := &Transaction{
		UserID:        req.UserID,
		Type:          req.Type,
		Amount:        req.Amount.Neg(),
		BalanceBefore: before,
		BalanceAfter:  w.TotalBalance,
		Description:   req.Description,
		ReferenceType: refKind,
		ReferenceID:   refID,
		Metadata: Metadata{
			BurnAmount: decimalPtr(burn.Burned),
			NetToPool:  decimalPtr(burn.NetToPool),
		},
	}
	if err := s.repo.InsertTransaction(ctx, tx.Tx, t); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	md, err := s.pricing.ApplyDebitSideEffects(ctx, tx, burn.Burned, burn.NetToPool)
	if err != nil {
		return nil, err
	}

	// Penalties are not user activity
	if req.Type == TransactionTypeSpend {
		for _, o := range s.observers {
			if err := o.AfterDebit(ctx, tx, req.UserID, req.Amount); err != nil {
				return nil, err
			}
		}
	}

	tx.AfterCommit(func(ctx context.Context) {
		logger.FromContext(ctx).Info().
			Str("user_id", req.UserID.String()).
			Str("type", string(req.Type)).
			Str("amount", req.Amount.String()).
			Str("burned", burn.Burned.String()).
			Str("net_to_pool", burn.NetToPool.String()).
			Str("transaction_id", t.ID.String()).
			Msg("Wallet debited")
		s.publisher.Publish(ctx, events.New(events.WalletDebited, req.UserID, map[string]any{
			"transaction_id":    t.ID,
			"type":              req.Type,
			"amount":            req.Amount,
			"spendable_balance": w.SpendableBalance,
		}))
	})

	return &Result{Wallet: w, Transaction: t, Market: md}, nil
}

// Spend debits spendable tokens on behalf of the user
func (s *Service) Spend(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, ref Reference) (*Result, error) {
	return s.Debit(ctx, DebitRequest{
		UserID:      userID,
		Amount:      amount,
		Type:        TransactionTypeSpend,
		Description: description,
		Reference:   ref,
	})
}

// LockWallets locks (creating if needed) every wallet in user id order.
// Units of work touching several wallets call it first so concurrent
// operations always acquire wallet locks in the same order.
func (s *Service) LockWallets(ctx context.Context, tx *database.Tx, userIDs ...uuid.UUID) error {
	ids := slices.Clone(userIDs)
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	ids = slices.Compact(ids)

	for _, id := range ids {
		if _, err := s.repo.LockWallet(ctx, tx.Tx, id); err != nil {
			return fmt.Errorf("lock wallet %s: %w", id, err)
		}
	}
	return nil
}

// GetBalance returns the user's balances. A user without a wallet has zero balances.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w, err := s.repo.Get(ctx, userID)
	if database.IsNoRows(err) {
		return &Wallet{
			UserID:           userID,
			TotalBalance:     decimal.Zero,
			SpendableBalance: decimal.Zero,
			LockedBalance:    decimal.Zero,
			LifetimeEarned:   decimal.Zero,
			LifetimeSpent:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetHistory returns a page of the user's transactions, newest first
func (s *Service) GetHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	limit, offset = historyPage(limit, offset)
	txs, err := s.repo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func historyPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// VerifyLedger replays the user's ledger under the wallet lock and
// compares it with the stored balances
func (s *Service) VerifyLedger(ctx context.Context, userID uuid.UUID) (*Verification, error) {
	var v *Verification
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		stored, err := s.repo.FindForUpdate(ctx, tx.Tx, userID)
		if database.IsNoRows(err) {
			return ErrWalletNotFound
		}
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		txs, err := s.repo.AllTransactions(ctx, tx.Tx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}

		v = &Verification{UserID: userID, Stored: stored, Transactions: len(txs)}
		replayed, err := Replay(userID, txs)
		if err != nil {
			logger.FromContext(ctx).Error().Err(err).Str("user_id", userID.String()).Msg("Ledger replay failed")
			return nil
		}
		v.Replayed = replayed
		v.Consistent = stored.Balanced() && stored.SameBalances(replayed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !v.Consistent {
		logger.FromContext(ctx).Error().Str("user_id", userID.String()).Msg("Wallet balances drifted from ledger")
	}
	return v, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperr.ErrInsufficientBalance):
		return "insufficient"
	case apperr.IsRetryable(err):
		return "retryable"
	case apperr.IsTerminal(err):
		return "rejected"
	}
	return "failed"
}
