package receipt

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const receiptColumns = `id, user_id, merchant_id, total_amount, currency, receipt_date, status,
	luvy_earned, is_pfand, pfand_amount, image_ref, notes, processed_at, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rc *Receipt) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO receipts (user_id, merchant_id, total_amount, currency, receipt_date, status,
			luvy_earned, is_pfand, pfand_amount, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, rc.UserID, rc.MerchantID, rc.TotalAmount, rc.Currency, rc.ReceiptDate, rc.Status,
		rc.LuvyEarned, rc.IsPfand, rc.PfandAmount, rc.ImageRef,
	).Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
}

// LockForUpdate reads a receipt and holds its lock until tx ends.
// Returns sql.ErrNoRows when absent.
func (r *Repository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Receipt, error) {
	var rc Receipt
	err := tx.GetContext(ctx, &rc, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// Decide moves a pending receipt to a terminal status. Returns sql.ErrNoRows
// when the receipt is no longer pending.
func (r *Repository) Decide(ctx context.Context, tx *sqlx.Tx, rc *Receipt) error {
	return tx.QueryRowxContext(ctx, `
		UPDATE receipts SET
			status = $2,
			notes = $3,
			processed_at = now(),
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING processed_at, updated_at
	`, rc.ID, rc.Status, rc.Notes,
	).Scan(&rc.ProcessedAt, &rc.UpdatedAt)
}

// Get returns a receipt. Returns sql.ErrNoRows when absent.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	var rc Receipt
	err := r.db.GetContext(ctx, &rc, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// ListByUser returns the user's receipts, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Receipt, error) {
	out := []Receipt{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return out, err
}

// ListPending returns the review queue, oldest first
func (r *Repository) ListPending(ctx context.Context, limit, offset int) ([]Receipt, error) {
	out := []Receipt{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return out, err
}
