package receipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/domain/progression"
	"github.com/luvy/luvy-api/internal/domain/wallet"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/events"
	"github.com/luvy/luvy-api/internal/pkg/logger"
	"github.com/luvy/luvy-api/internal/pkg/metrics"
	"github.com/luvy/luvy-api/internal/pkg/money"
)

const (
	defaultCurrency  = "EUR"
	defaultListLimit = 20
	maxListLimit     = 100

	// receipts dated up to a day ahead are accepted to absorb time zones
	futureTolerance = 24 * time.Hour
)

// Ledger credits the reward of an approved receipt
type Ledger interface {
	CreditTx(ctx context.Context, tx *database.Tx, req wallet.CreditRequest) (*wallet.Result, error)
}

// Progression reacts to an approved receipt in the same unit of work
type Progression interface {
	OnReceiptApprovedTx(ctx context.Context, tx *database.Tx, userID uuid.UUID, luvy decimal.Decimal) (*progression.Progress, error)
}

// SubmitInput is a new receipt from an authenticated user
type SubmitInput struct {
	UserID      uuid.UUID
	MerchantID  *uuid.UUID
	TotalAmount decimal.Decimal
	Currency    string
	ReceiptDate time.Time
	IsPfand     bool
	PfandAmount decimal.Decimal
	ImageRef    *string
}

// Approval is everything an approval wrote
type Approval struct {
	Receipt     *Receipt              `json:"receipt"`
	Wallet      *wallet.Wallet        `json:"wallet"`
	Transaction *wallet.Transaction   `json:"transaction"`
	Progress    *progression.Progress `json:"progress"`
}

type Service struct {
	db          *sqlx.DB
	repo        *Repository
	ledger      Ledger
	progression Progression
	publisher   events.Publisher
	now         func() time.Time
}

func NewService(db *sqlx.DB, repo *Repository, ledger Ledger, prog Progression, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:          db,
		repo:        repo,
		ledger:      ledger,
		progression: prog,
		publisher:   publisher,
		now:         time.Now,
	}
}

// Submit validates and stores a pending receipt with its reward fixed
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Receipt, error) {
	if err := money.ValidatePositive(in.TotalAmount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	if err := money.ValidateNonNegative(in.PfandAmount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPfand, err)
	}
	if in.PfandAmount.GreaterThan(in.TotalAmount) {
		return nil, ErrInvalidPfand
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if !validCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	if in.ReceiptDate.IsZero() || in.ReceiptDate.After(s.now().Add(futureTolerance)) {
		return nil, ErrInvalidReceiptDate
	}

	rc := &Receipt{
		UserID:      in.UserID,
		MerchantID:  in.MerchantID,
		TotalAmount: in.TotalAmount,
		Currency:    currency,
		ReceiptDate: in.ReceiptDate,
		Status:      StatusPending,
		LuvyEarned:  RewardFor(in.TotalAmount, in.IsPfand),
		IsPfand:     in.IsPfand,
		PfandAmount: in.PfandAmount,
		ImageRef:    in.ImageRef,
	}
	if err := s.repo.Create(ctx, rc); err != nil {
		return nil, fmt.Errorf("create receipt: %w", database.Classify(err))
	}

	logger.FromContext(ctx).Info().
		Str("receipt_id", rc.ID.String()).
		Str("user_id", rc.UserID.String()).
		Str("total_amount", rc.TotalAmount.String()).
		Str("luvy_earned", rc.LuvyEarned.String()).
		Bool("is_pfand", rc.IsPfand).
		Msg("Receipt submitted")
	return rc, nil
}

// Approve credits the receipt's reward and runs progression in one unit of work.
// A receipt is approved at most once.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, notes string) (*Approval, error) {
	var out *Approval
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		rc, err := s.decide(ctx, tx, id, StatusApproved, notes)
		if err != nil {
			return err
		}

		credit, err := s.ledger.CreditTx(ctx, tx, wallet.CreditRequest{
			UserID:      rc.UserID,
			Amount:      rc.LuvyEarned,
			Type:        wallet.TransactionTypeEarn,
			Description: "Receipt reward",
			Reference:   wallet.ReceiptRef{ReceiptID: rc.ID},
		})
		if err != nil {
			return fmt.Errorf("credit reward: %w", err)
		}

		progress, err := s.progression.OnReceiptApprovedTx(ctx, tx, rc.UserID, rc.LuvyEarned)
		if err != nil {
			return fmt.Errorf("progression: %w", err)
		}

		out = &Approval{Receipt: rc, Wallet: credit.Wallet, Transaction: credit.Transaction, Progress: progress}

		tx.AfterCommit(func(ctx context.Context) {
			metrics.RecordReceiptDecision(string(StatusApproved))
			logger.FromContext(ctx).Info().
				Str("receipt_id", rc.ID.String()).
				Str("user_id", rc.UserID.String()).
				Str("luvy_earned", rc.LuvyEarned.String()).
				Msg("Receipt approved")
			s.publisher.Publish(ctx, events.New(events.ReceiptApproved, rc.UserID, map[string]any{
				"receipt_id":  rc.ID,
				"luvy_earned": rc.LuvyEarned,
			}))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject closes a pending receipt with reason and no ledger effect
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Receipt, error) {
	var out *Receipt
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		rc, err := s.decide(ctx, tx, id, StatusRejected, reason)
		if err != nil {
			return err
		}
		out = rc

		tx.AfterCommit(func(ctx context.Context) {
			metrics.RecordReceiptDecision(string(StatusRejected))
			logger.FromContext(ctx).Info().
				Str("receipt_id", rc.ID.String()).
				Str("user_id", rc.UserID.String()).
				Str("reason", reason).
				Msg("Receipt rejected")
			s.publisher.Publish(ctx, events.New(events.ReceiptRejected, rc.UserID, map[string]any{
				"receipt_id": rc.ID,
				"reason":     reason,
			}))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decide locks the receipt and moves it from pending to status
func (s *Service) decide(ctx context.Context, tx *database.Tx, id uuid.UUID, status Status, notes string) (*Receipt, error) {
	rc, err := s.repo.LockForUpdate(ctx, tx.Tx, id)
	if database.IsNoRows(err) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock receipt: %w", err)
	}
	if rc.Status != StatusPending {
		return nil, fmt.Errorf("%w: receipt is %s", ErrAlreadyProcessed, rc.Status)
	}

	rc.Status = status
	if notes != "" {
		rc.Notes = &notes
	}
	err = s.repo.Decide(ctx, tx.Tx, rc)
	if database.IsNoRows(err) {
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		return nil, fmt.Errorf("update receipt: %w", err)
	}
	return rc, nil
}

// Get returns any receipt by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	rc, err := s.repo.Get(ctx, id)
	if database.IsNoRows(err) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return rc, nil
}

// GetForUser returns the receipt only if userID owns it
func (s *Service) GetForUser(ctx context.Context, id, userID uuid.UUID) (*Receipt, error) {
	rc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rc.UserID != userID {
		return nil, ErrReceiptNotFound
	}
	return rc, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Receipt, error) {
	limit, offset = page(limit, offset)
	out, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return out, nil
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]Receipt, error) {
	limit, offset = page(limit, offset)
	out, err := s.repo.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending receipts: %w", err)
	}
	return out, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
