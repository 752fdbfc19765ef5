package progression

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/domain/wallet"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/events"
	"github.com/luvy/luvy-api/internal/pkg/logger"
)

const (
	referralPrefix   = "LUVY"
	referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referralRandLen  = 6
	referralAttempts = 5
)

// Ledger issues bonus credits and takes wallet locks
type Ledger interface {
	CreditTx(ctx context.Context, tx *database.Tx, req wallet.CreditRequest) (*wallet.Result, error)
	LockWallets(ctx context.Context, tx *database.Tx, userIDs ...uuid.UUID) error
}

// LevelChange is the result of recording one earn event
type LevelChange struct {
	Before    Level      `json:"before"`
	After     Level      `json:"after"`
	LeveledUp bool       `json:"leveled_up"`
	UserLevel *UserLevel `json:"user_level"`
}

// Progress is everything one approved receipt changed
type Progress struct {
	Level        *LevelChange  `json:"level"`
	Achievements []Achievement `json:"achievements_unlocked"`
	Challenges   []Challenge   `json:"challenges_completed"`
}

type Service struct {
	db        *sqlx.DB
	repo      *Repository
	ledger    Ledger
	publisher events.Publisher
	rewards   ReferralRewards
	now       func() time.Time
	newCode   func() (string, error)
}

func NewService(db *sqlx.DB, repo *Repository, ledger Ledger, publisher events.Publisher, rewards ReferralRewards) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		publisher: publisher,
		rewards:   rewards,
		now:       time.Now,
		newCode:   generateReferralCode,
	}
}

// inUserTx runs fn in its own unit of work after locking the user's wallet.
// Every path that touches a user's progression rows holds that lock first.
func (s *Service) inUserTx(ctx context.Context, userID uuid.UUID, fn func(tx *database.Tx) error) error {
	return database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		if err := s.ledger.LockWallets(ctx, tx, userID); err != nil {
			return err
		}
		return fn(tx)
	})
}

// RecordEarn applies one earn event in its own transaction
func (s *Service) RecordEarn(ctx context.Context, userID uuid.UUID, luvy decimal.Decimal) (*LevelChange, error) {
	var change *LevelChange
	err := s.inUserTx(ctx, userID, func(tx *database.Tx) error {
		var err error
		change, err = s.RecordEarnTx(ctx, tx, userID, luvy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// RecordEarnTx adds luvy to the user's cumulative counters, grants XP,
// advances the daily streak and recomputes the level
func (s *Service) RecordEarnTx(ctx context.Context, tx *database.Tx, userID uuid.UUID, luvy decimal.Decimal) (*LevelChange, error) {
	l, err := s.repo.LockLevel(ctx, tx.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user level: %w", err)
	}

	now := s.now()
	before := l.Level
	l.TotalLuvyEarned = l.TotalLuvyEarned.Add(luvy)
	l.CurrentXP += XPFor(luvy)
	l.ReceiptsSubmitted++
	l.ConsecutiveDays = NextStreak(l.ConsecutiveDays, l.LastActiveDate, now)
	today := civilDay(now)
	l.LastActiveDate = &today

	// Level never drops, even if thresholds are lowered later
	if next := LevelFor(l.TotalLuvyEarned); next.Rank() > l.Level.Rank() {
		l.Level = next
	}

	if err := s.repo.UpdateLevel(ctx, tx.Tx, l); err != nil {
		return nil, fmt.Errorf("update user level: %w", err)
	}

	change := &LevelChange{Before: before, After: l.Level, LeveledUp: l.Level != before, UserLevel: l}
	if change.LeveledUp {
		tx.AfterCommit(func(ctx context.Context) {
			logger.FromContext(ctx).Info().
				Str("user_id", userID.String()).
				Str("from", string(before)).
				Str("to", string(l.Level)).
				Msg("User leveled up")
			s.publisher.Publish(ctx, events.New(events.ProgressionLevelUp, userID, map[string]any{
				"from":              before,
				"to":                l.Level,
				"total_luvy_earned": l.TotalLuvyEarned,
			}))
		})
	}
	return change, nil
}

// EvaluateAchievements checks every pending achievement in its own transaction
func (s *Service) EvaluateAchievements(ctx context.Context, userID uuid.UUID) ([]Achievement, error) {
	var unlocked []Achievement
	err := s.inUserTx(ctx, userID, func(tx *database.Tx) error {
		var err error
		unlocked, err = s.EvaluateAchievementsTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unlocked, nil
}

// EvaluateAchievementsTx unlocks every active achievement whose requirement
// the user's counters now satisfy and pays its reward once
func (s *Service) EvaluateAchievementsTx(ctx context.Context, tx *database.Tx, userID uuid.UUID) ([]Achievement, error) {
	l, err := s.repo.LockLevel(ctx, tx.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user level: %w", err)
	}
	return s.evaluate(ctx, tx, l)
}

// evaluate checks achievements against l, which the caller holds locked
func (s *Service) evaluate(ctx context.Context, tx *database.Tx, l *UserLevel) ([]Achievement, error) {
	userID := l.UserID
	pending, err := s.repo.PendingAchievements(ctx, tx.Tx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	unlocked := []Achievement{}
	for _, a := range pending {
		if a.Requirement.Requirement == nil || !a.Requirement.SatisfiedBy(l) {
			continue
		}

		inserted, err := s.repo.InsertUnlock(ctx, tx.Tx, userID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("unlock achievement %s: %w", a.Code, err)
		}
		if !inserted {
			continue
		}

		if a.Reward.Pays() {
			if _, err := s.ledger.CreditTx(ctx, tx, wallet.CreditRequest{
				UserID:      userID,
				Amount:      a.Reward.Luvy,
				Type:        wallet.TransactionTypeBonus,
				Description: "Achievement unlocked: " + a.Name,
				Reference:   wallet.AchievementRef{AchievementID: a.ID},
			}); err != nil {
				return nil, fmt.Errorf("achievement reward: %w", err)
			}
		}
		unlocked = append(unlocked, a)
	}

	if len(unlocked) > 0 {
		tx.AfterCommit(func(ctx context.Context) {
			for _, a := range unlocked {
				logger.FromContext(ctx).Info().
					Str("user_id", userID.String()).
					Str("achievement", a.Code).
					Str("reward", a.Reward.Luvy.String()).
					Msg("Achievement unlocked")
				s.publisher.Publish(ctx, events.New(events.ProgressionAchievementUnlocked, userID, map[string]any{
					"achievement_id": a.ID,
					"code":           a.Code,
					"reward":         a.Reward.Luvy,
				}))
			}
		})
	}
	return unlocked, nil
}

// AdvanceChallenge adds delta to the user's open challenges of category in its own transaction
func (s *Service) AdvanceChallenge(ctx context.Context, userID uuid.UUID, category ChallengeCategory, delta int64) ([]Challenge, error) {
	var completed []Challenge
	err := s.inUserTx(ctx, userID, func(tx *database.Tx) error {
		var err error
		completed, err = s.AdvanceChallengeTx(ctx, tx, userID, category, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// AdvanceChallengeTx increments progress on every open challenge of category.
// A challenge pays its reward only on the transition from active to completed.
func (s *Service) AdvanceChallengeTx(ctx context.Context, tx *database.Tx, userID uuid.UUID, category ChallengeCategory, delta int64) ([]Challenge, error) {
	if delta <= 0 {
		return nil, ErrInvalidDelta
	}

	now := s.now()
	open, err := s.repo.OpenChallenges(ctx, tx.Tx, category, now)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	completed := []Challenge{}
	for i := range open {
		c := &open[i]
		uc, err := s.repo.LockUserChallenge(ctx, tx.Tx, userID, c)
		if err != nil {
			return nil, fmt.Errorf("lock challenge %s: %w", c.Code, err)
		}
		if uc.Status != ChallengeActive {
			continue
		}

		uc.Progress += delta
		done := uc.Progress >= uc.Target
		if done {
			uc.Status = ChallengeCompleted
			uc.CompletedAt = &now
		}
		if err := s.repo.UpdateUserChallenge(ctx, tx.Tx, uc); err != nil {
			return nil, fmt.Errorf("update challenge %s: %w", c.Code, err)
		}
		if !done {
			continue
		}

		if c.Reward.Pays() {
			if _, err := s.ledger.CreditTx(ctx, tx, wallet.CreditRequest{
				UserID:      userID,
				Amount:      c.Reward.Luvy,
				Type:        wallet.TransactionTypeBonus,
				Description: "Challenge completed: " + c.Name,
				Reference:   wallet.ChallengeRef{ChallengeID: c.ID},
			}); err != nil {
				return nil, fmt.Errorf("challenge reward: %w", err)
			}
		}
		completed = append(completed, *c)
	}

	if len(completed) > 0 {
		tx.AfterCommit(func(ctx context.Context) {
			for _, c := range completed {
				logger.FromContext(ctx).Info().
					Str("user_id", userID.String()).
					Str("challenge", c.Code).
					Str("reward", c.Reward.Luvy.String()).
					Msg("Challenge completed")
				s.publisher.Publish(ctx, events.New(events.ProgressionChallengeCompleted, userID, map[string]any{
					"challenge_id": c.ID,
					"code":         c.Code,
					"reward":       c.Reward.Luvy,
				}))
			}
		})
	}
	return completed, nil
}

// OnReceiptApprovedTx runs the progression side of an approval inside its unit of work
func (s *Service) OnReceiptApprovedTx(ctx context.Context, tx *database.Tx, userID uuid.UUID, luvy decimal.Decimal) (*Progress, error) {
	change, err := s.RecordEarnTx(ctx, tx, userID, luvy)
	if err != nil {
		return nil, err
	}
	challenges, err := s.AdvanceChallengeTx(ctx, tx, userID, ChallengeReceipt, 1)
	if err != nil {
		return nil, err
	}
	achievements, err := s.evaluate(ctx, tx, change.UserLevel)
	if err != nil {
		return nil, err
	}
	return &Progress{Level: change, Achievements: achievements, Challenges: challenges}, nil
}

// AfterDebit advances spending challenges by one for every committed spend
func (s *Service) AfterDebit(ctx context.Context, tx *database.Tx, userID uuid.UUID, _ decimal.Decimal) error {
	_, err := s.AdvanceChallengeTx(ctx, tx, userID, ChallengeSpending, 1)
	return err
}

// CreateReferral issues a new pending referral code for userID
func (s *Service) CreateReferral(ctx context.Context, userID uuid.UUID) (*Referral, error) {
	for attempt := 0; attempt < referralAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}

		ref := &Referral{
			ReferrerID:     userID,
			ReferralCode:   code,
			Status:         ReferralPending,
			ReferrerReward: s.rewards.Referrer,
			ReferredReward: s.rewards.Referred,
		}
		err = s.repo.CreateReferral(ctx, ref)
		if database.IsUniqueViolation(err) {
			logger.FromContext(ctx).Warn().Str("code", code).Int("attempt", attempt+1).Msg("Referral code collision")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create referral: %w", database.Classify(err))
		}
		return ref, nil
	}
	return nil, ErrCodeExhausted
}

// CompleteReferral redeems code for newUserID and pays both bonuses.
// A code can be redeemed once and each user can be referred once.
func (s *Service) CompleteReferral(ctx context.Context, code string, newUserID uuid.UUID) (*Referral, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var ref *Referral
	err := database.WithTx(ctx, s.db, func(tx *database.Tx) error {
		found, err := s.repo.FindReferralByCode(ctx, tx.Tx, code)
		if database.IsNoRows(err) {
			return ErrReferralNotFound
		}
		if err != nil {
			return fmt.Errorf("find referral: %w", err)
		}
		if found.ReferrerID == newUserID {
			return ErrSelfReferral
		}

		if err := s.ledger.LockWallets(ctx, tx, found.ReferrerID, newUserID); err != nil {
			return err
		}

		ref, err = s.repo.LockReferral(ctx, tx.Tx, found.ID)
		if err != nil {
			return fmt.Errorf("lock referral: %w", err)
		}
		if ref.Status != ReferralPending {
			return ErrReferralUsed
		}

		referred, err := s.repo.WasReferred(ctx, tx.Tx, newUserID)
		if err != nil {
			return fmt.Errorf("check referred user: %w", err)
		}
		if referred {
			return ErrAlreadyReferred
		}

		now := s.now()
		ref.Status = ReferralCompleted
		ref.ReferredUserID = &newUserID
		ref.CompletedAt = &now
		if err := s.repo.CompleteReferral(ctx, tx.Tx, ref); err != nil {
			return fmt.Errorf("complete referral: %w", err)
		}

		bonuses := []wallet.CreditRequest{
			{UserID: ref.ReferrerID, Amount: ref.ReferrerReward, Description: "Referral bonus - friend joined"},
			{UserID: newUserID, Amount: ref.ReferredReward, Description: "Welcome bonus - referral"},
		}
		for _, b := range bonuses {
			if !b.Amount.IsPositive() {
				continue
			}
			b.Type = wallet.TransactionTypeBonus
			b.Reference = wallet.ReferralRef{ReferralID: ref.ID}
			if _, err := s.ledger.CreditTx(ctx, tx, b); err != nil {
				return fmt.Errorf("referral bonus: %w", err)
			}
		}

		tx.AfterCommit(func(ctx context.Context) {
			logger.FromContext(ctx).Info().
				Str("referral_id", ref.ID.String()).
				Str("referrer_id", ref.ReferrerID.String()).
				Str("referred_user_id", newUserID.String()).
				Msg("Referral completed")
			s.publisher.Publish(ctx, events.New(events.ReferralCompleted, ref.ReferrerID, map[string]any{
				"referral_id":      ref.ID,
				"referred_user_id": newUserID,
				"referrer_reward":  ref.ReferrerReward,
				"referred_reward":  ref.ReferredReward,
			}))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// GetUserLevel returns the user's progression. A user with no earn events is bronze with zero counters.
func (s *Service) GetUserLevel(ctx context.Context, userID uuid.UUID) (*UserLevel, error) {
	l, err := s.repo.GetLevel(ctx, userID)
	if database.IsNoRows(err) {
		return newUserLevel(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user level: %w", err)
	}
	return l, nil
}

func (s *Service) GetAchievements(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	out, err := s.repo.AchievementsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return out, nil
}

func (s *Service) GetChallenges(ctx context.Context, userID uuid.UUID) ([]ChallengeProgress, error) {
	out, err := s.repo.ChallengesForUser(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return out, nil
}

func (s *Service) GetReferrals(ctx context.Context, userID uuid.UUID) ([]Referral, error) {
	out, err := s.repo.ReferralsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return out, nil
}

func (s *Service) CreateAchievement(ctx context.Context, a *Achievement) error {
	if a.Requirement.Requirement == nil {
		return ErrInvalidRequirement
	}
	err := s.repo.CreateAchievement(ctx, a)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	logger.FromContext(ctx).Info().Str("code", a.Code).Str("id", a.ID.String()).Msg("Achievement created")
	return nil
}

func (s *Service) CreateChallenge(ctx context.Context, c *Challenge) error {
	switch {
	case c.Goal.Target <= 0:
		return fmt.Errorf("%w: target must be positive", ErrInvalidChallenge)
	case !c.Reward.Pays():
		return fmt.Errorf("%w: reward must be positive", ErrInvalidChallenge)
	case !c.EndDate.After(c.StartDate):
		return fmt.Errorf("%w: end_date must be after start_date", ErrInvalidChallenge)
	}
	err := s.repo.CreateChallenge(ctx, c)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	logger.FromContext(ctx).Info().Str("code", c.Code).Str("id", c.ID.String()).Msg("Challenge created")
	return nil
}

func generateReferralCode() (string, error) {
	var b strings.Builder
	b.WriteString(referralPrefix)
	base := big.NewInt(int64(len(referralAlphabet)))
	for i := 0; i < referralRandLen; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}
