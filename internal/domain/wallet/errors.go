package wallet

import (
	"fmt"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

var (
	ErrInvalidAmount          = fmt.Errorf("invalid amount: %w", apperr.ErrValidation)
	ErrInvalidTransactionType = fmt.Errorf("invalid transaction type: %w", apperr.ErrValidation)
	ErrInvalidReference       = fmt.Errorf("invalid transaction reference: %w", apperr.ErrValidation)
	ErrInsufficientBalance    = fmt.Errorf("insufficient spendable balance: %w", apperr.ErrInsufficientBalance)
	ErrWalletNotFound         = fmt.Errorf("wallet not found: %w", apperr.ErrNotFound)
	ErrLedgerMismatch         = fmt.Errorf("ledger does not reproduce wallet balances: %w", apperr.ErrConflict)
)
