package progression

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserLevel is a user's cumulative progression counters
type UserLevel struct {
	UserID            uuid.UUID       `db:"user_id" json:"user_id"`
	Level             Level           `db:"level" json:"level"`
	CurrentXP         int64           `db:"current_xp" json:"current_xp"`
	TotalLuvyEarned   decimal.Decimal `db:"total_luvy_earned" json:"total_luvy_earned"`
	ReceiptsSubmitted int64           `db:"receipts_submitted" json:"receipts_submitted"`
	ConsecutiveDays   int             `db:"consecutive_days" json:"consecutive_days"`
	LastActiveDate    *time.Time      `db:"last_active_date" json:"last_active_date,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

func newUserLevel(userID uuid.UUID) *UserLevel {
	return &UserLevel{UserID: userID, Level: LevelBronze, TotalLuvyEarned: decimal.Zero}
}

type AchievementCategory string

const (
	AchievementReceipt  AchievementCategory = "receipt"
	AchievementSpending AchievementCategory = "spending"
	AchievementStreak   AchievementCategory = "streak"
	AchievementReferral AchievementCategory = "referral"
	AchievementSpecial  AchievementCategory = "special"
)

// Achievement is a one-time unlock definition
type Achievement struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	Code        string              `db:"code" json:"code"`
	Name        string              `db:"name" json:"name"`
	Description string              `db:"description" json:"description"`
	Category    AchievementCategory `db:"category" json:"category"`
	Icon        *string             `db:"icon" json:"icon,omitempty"`
	Requirement RequirementSpec     `db:"requirement" json:"requirement"`
	Reward      Reward              `db:"reward" json:"reward"`
	IsActive    bool                `db:"is_active" json:"is_active"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// AchievementStatus is a definition joined with the user's unlock
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `db:"unlocked" json:"unlocked"`
	UnlockedAt *time.Time `db:"unlocked_at" json:"unlocked_at,omitempty"`
}

type ChallengePeriod string

const (
	PeriodDaily   ChallengePeriod = "daily"
	PeriodWeekly  ChallengePeriod = "weekly"
	PeriodMonthly ChallengePeriod = "monthly"
	PeriodSpecial ChallengePeriod = "special"
)

// ChallengeCategory is the kind of activity that advances a challenge
type ChallengeCategory string

const (
	ChallengeReceipt  ChallengeCategory = "receipt"
	ChallengeSpending ChallengeCategory = "spending"
	ChallengeMerchant ChallengeCategory = "merchant"
	ChallengeSocial   ChallengeCategory = "social"
)

// Challenge is a time-boxed goal. Progress is counted in activity units.
type Challenge struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	Code        string            `db:"code" json:"code"`
	Name        string            `db:"name" json:"name"`
	Description string            `db:"description" json:"description"`
	Period      ChallengePeriod   `db:"period" json:"period"`
	Category    ChallengeCategory `db:"category" json:"category"`
	Goal        Goal              `db:"requirement" json:"requirement"`
	Reward      Reward            `db:"reward" json:"reward"`
	StartDate   time.Time         `db:"start_date" json:"start_date"`
	EndDate     time.Time         `db:"end_date" json:"end_date"`
	IsActive    bool              `db:"is_active" json:"is_active"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

// UserChallenge is a user's progress on one challenge
type UserChallenge struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	ChallengeID uuid.UUID       `db:"challenge_id" json:"challenge_id"`
	Progress    int64           `db:"progress" json:"progress"`
	Target      int64           `db:"target" json:"target"`
	Status      ChallengeStatus `db:"status" json:"status"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ChallengeProgress is a challenge joined with the user's progress.
// Progress fields are zero when the user has not started it.
type ChallengeProgress struct {
	Challenge
	Progress    int64           `db:"progress" json:"progress"`
	Status      ChallengeStatus `db:"status" json:"status"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralExpired   ReferralStatus = "expired"
)

type Referral struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	ReferrerID     uuid.UUID       `db:"referrer_id" json:"referrer_id"`
	ReferredUserID *uuid.UUID      `db:"referred_user_id" json:"referred_user_id,omitempty"`
	ReferralCode   string          `db:"referral_code" json:"referral_code"`
	Status         ReferralStatus  `db:"status" json:"status"`
	ReferrerReward decimal.Decimal `db:"referrer_reward" json:"referrer_reward"`
	ReferredReward decimal.Decimal `db:"referred_reward" json:"referred_reward"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// ReferralRewards are the fixed bonuses paid when a referral completes
type ReferralRewards struct {
	Referrer decimal.Decimal
	Referred decimal.Decimal
}
