package progression

import (
	"fmt"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

var (
	ErrInvalidRequirement = fmt.Errorf("invalid achievement requirement: %w", apperr.ErrValidation)
	ErrInvalidChallenge   = fmt.Errorf("invalid challenge: %w", apperr.ErrValidation)
	ErrInvalidDelta       = fmt.Errorf("challenge progress delta must be positive: %w", apperr.ErrValidation)
	ErrSelfReferral       = fmt.Errorf("a user cannot redeem their own referral code: %w", apperr.ErrValidation)
	ErrReferralNotFound   = fmt.Errorf("referral code not found: %w", apperr.ErrNotFound)
	ErrReferralUsed       = fmt.Errorf("referral code already used: %w", apperr.ErrAlreadyProcessed)
	ErrAlreadyReferred    = fmt.Errorf("user was already referred: %w", apperr.ErrConflict)
	ErrDuplicateCode      = fmt.Errorf("code already exists: %w", apperr.ErrConflict)
	ErrCodeExhausted      = fmt.Errorf("could not generate a unique referral code: %w", apperr.ErrConflict)
)
