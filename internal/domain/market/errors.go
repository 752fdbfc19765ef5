package market

import (
	"fmt"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

var (
	ErrInvalidInterval   = fmt.Errorf("invalid market interval: %w", apperr.ErrValidation)
	ErrInvalidAdjustment = fmt.Errorf("invalid supply adjustment: %w", apperr.ErrValidation)
	ErrSupplyUnderflow   = fmt.Errorf("burn exceeds circulating supply: %w", apperr.ErrConflict)
	ErrSnapshotExists    = fmt.Errorf("snapshot already taken for this bucket: %w", apperr.ErrConflict)
)
