package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const walletColumns = `user_id, total_balance, spendable_balance, locked_balance,
	lifetime_earned, lifetime_spent, created_at, updated_at`

const transactionColumns = `id, seq, user_id, type, amount, balance_before, balance_after,
	description, reference_type, reference_id, metadata, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LockWallet creates the wallet if absent and locks it until tx ends
func (r *Repository) LockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}
	return r.FindForUpdate(ctx, tx, userID)
}

// FindForUpdate locks an existing wallet. Returns sql.ErrNoRows when absent.
func (r *Repository) FindForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := tx.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) Update(ctx context.Context, tx *sqlx.Tx, w *Wallet) error {
	return tx.QueryRowxContext(ctx, `
		UPDATE wallets SET
			total_balance = $2,
			spendable_balance = $3,
			locked_balance = $4,
			lifetime_earned = $5,
			lifetime_spent = $6,
			updated_at = now()
		WHERE user_id = $1
		RETURNING updated_at
	`, w.UserID, w.TotalBalance, w.SpendableBalance, w.LockedBalance, w.LifetimeEarned, w.LifetimeSpent,
	).Scan(&w.UpdatedAt)
}

// InsertTransaction appends t and fills its generated id, seq and created_at
func (r *Repository) InsertTransaction(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	return tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, balance_before, balance_after,
			description, reference_type, reference_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, seq, created_at
	`, t.UserID, t.Type, t.Amount, t.BalanceBefore, t.BalanceAfter,
		t.Description, t.ReferenceType, t.ReferenceID, t.Metadata,
	).Scan(&t.ID, &t.Seq, &t.CreatedAt)
}

// Get returns the wallet without locking. Returns sql.ErrNoRows when absent.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var w Wallet
	err := r.db.GetContext(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListTransactions returns a page of the user's ledger, newest first
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return txs, err
}

// AllTransactions returns the user's full ledger in audit order
func (r *Repository) AllTransactions(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) ([]Transaction, error) {
	txs := []Transaction{}
	err := tx.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at ASC, seq ASC
	`, userID)
	return txs, err
}
