package receipt

import (
	"fmt"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

var (
	ErrReceiptNotFound    = fmt.Errorf("receipt not found: %w", apperr.ErrNotFound)
	ErrAlreadyProcessed   = fmt.Errorf("receipt already processed: %w", apperr.ErrAlreadyProcessed)
	ErrInvalidAmount      = fmt.Errorf("invalid receipt amount: %w", apperr.ErrValidation)
	ErrInvalidPfand       = fmt.Errorf("pfand amount must be between 0 and the receipt total: %w", apperr.ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("currency must be a 3-letter ISO code: %w", apperr.ErrValidation)
	ErrInvalidReceiptDate = fmt.Errorf("receipt date is missing or in the future: %w", apperr.ErrValidation)
)
