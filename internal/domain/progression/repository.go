package progression

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const levelColumns = `user_id, level, current_xp, total_luvy_earned, receipts_submitted,
	consecutive_days, last_active_date, created_at, updated_at`

const achievementColumns = `a.id, a.code, a.name, a.description, a.category, a.icon,
	a.requirement, a.reward, a.is_active, a.created_at`

const challengeColumns = `c.id, c.code, c.name, c.description, c.period, c.category,
	c.requirement, c.reward, c.start_date, c.end_date, c.is_active, c.created_at`

const userChallengeColumns = `id, user_id, challenge_id, progress, target, status,
	completed_at, created_at, updated_at`

const referralColumns = `id, referrer_id, referred_user_id, referral_code, status,
	referrer_reward, referred_reward, completed_at, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LockLevel creates the user's level row if absent and locks it until tx ends
func (r *Repository) LockLevel(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*UserLevel, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_levels (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	var l UserLevel
	err := tx.GetContext(ctx, &l, `SELECT `+levelColumns+` FROM user_levels WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) UpdateLevel(ctx context.Context, tx *sqlx.Tx, l *UserLevel) error {
	return tx.QueryRowxContext(ctx, `
		UPDATE user_levels SET
			level = $2,
			current_xp = $3,
			total_luvy_earned = $4,
			receipts_submitted = $5,
			consecutive_days = $6,
			last_active_date = $7,
			updated_at = now()
		WHERE user_id = $1
		RETURNING updated_at
	`, l.UserID, l.Level, l.CurrentXP, l.TotalLuvyEarned, l.ReceiptsSubmitted, l.ConsecutiveDays, l.LastActiveDate,
	).Scan(&l.UpdatedAt)
}

// GetLevel returns the user's level row. Returns sql.ErrNoRows when absent.
func (r *Repository) GetLevel(ctx context.Context, userID uuid.UUID) (*UserLevel, error) {
	var l UserLevel
	err := r.db.GetContext(ctx, &l, `SELECT `+levelColumns+` FROM user_levels WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// PendingAchievements returns active achievements the user has not unlocked
func (r *Repository) PendingAchievements(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) ([]Achievement, error) {
	out := []Achievement{}
	err := tx.SelectContext(ctx, &out, `
		SELECT `+achievementColumns+`
		FROM achievements a
		WHERE a.is_active
			AND NOT EXISTS (
				SELECT 1 FROM user_achievements ua
				WHERE ua.user_id = $1 AND ua.achievement_id = a.id
			)
		ORDER BY a.created_at, a.code
	`, userID)
	return out, err
}

// InsertUnlock records an unlock. It returns false when the user already
// holds the achievement, so a concurrent second writer pays nothing.
func (r *Repository) InsertUnlock(ctx context.Context, tx *sqlx.Tx, userID, achievementID uuid.UUID) (bool, error) {
	rows, err := tx.QueryContext(ctx, `
		INSERT INTO user_achievements (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
		RETURNING id
	`, userID, achievementID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	inserted := rows.Next()
	return inserted, rows.Err()
}

// AchievementsForUser lists all active achievements with the user's unlock state
func (r *Repository) AchievementsForUser(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	out := []AchievementStatus{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+achievementColumns+`,
			ua.id IS NOT NULL AS unlocked,
			ua.unlocked_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = $1
		WHERE a.is_active
		ORDER BY a.category, a.created_at
	`, userID)
	return out, err
}

func (r *Repository) CreateAchievement(ctx context.Context, a *Achievement) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO achievements (code, name, description, category, icon, requirement, reward, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, a.Code, a.Name, a.Description, a.Category, a.Icon, a.Requirement, a.Reward, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
}

// OpenChallenges returns active challenges of a category whose window contains at
func (r *Repository) OpenChallenges(ctx context.Context, tx *sqlx.Tx, category ChallengeCategory, at time.Time) ([]Challenge, error) {
	out := []Challenge{}
	err := tx.SelectContext(ctx, &out, `
		SELECT `+challengeColumns+`
		FROM challenges c
		WHERE c.is_active AND c.category = $1 AND c.start_date <= $2 AND c.end_date >= $2
		ORDER BY c.end_date, c.code
	`, category, at)
	return out, err
}

// LockUserChallenge creates the user's progress row if absent and locks it until tx ends
func (r *Repository) LockUserChallenge(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, c *Challenge) (*UserChallenge, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_challenges (user_id, challenge_id, target)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, challenge_id) DO NOTHING
	`, userID, c.ID, c.Goal.Target); err != nil {
		return nil, err
	}

	var uc UserChallenge
	err := tx.GetContext(ctx, &uc, `
		SELECT `+userChallengeColumns+`
		FROM user_challenges
		WHERE user_id = $1 AND challenge_id = $2
		FOR UPDATE
	`, userID, c.ID)
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *Repository) UpdateUserChallenge(ctx context.Context, tx *sqlx.Tx, uc *UserChallenge) error {
	return tx.QueryRowxContext(ctx, `
		UPDATE user_challenges SET
			progress = $2,
			status = $3,
			completed_at = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, uc.ID, uc.Progress, uc.Status, uc.CompletedAt,
	).Scan(&uc.UpdatedAt)
}

// ChallengesForUser lists open challenges with the user's progress
func (r *Repository) ChallengesForUser(ctx context.Context, userID uuid.UUID, at time.Time) ([]ChallengeProgress, error) {
	out := []ChallengeProgress{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+challengeColumns+`,
			COALESCE(uc.progress, 0) AS progress,
			COALESCE(uc.status, 'active') AS status,
			uc.completed_at
		FROM challenges c
		LEFT JOIN user_challenges uc ON uc.challenge_id = c.id AND uc.user_id = $1
		WHERE c.is_active AND c.start_date <= $2 AND c.end_date >= $2
		ORDER BY c.end_date, c.code
	`, userID, at)
	return out, err
}

func (r *Repository) CreateChallenge(ctx context.Context, c *Challenge) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO challenges (code, name, description, period, category, requirement, reward,
			start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, c.Code, c.Name, c.Description, c.Period, c.Category, c.Goal, c.Reward,
		c.StartDate, c.EndDate, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
}

// CreateReferral inserts ref outside any unit of work so a code collision
// can be retried with a fresh code
func (r *Repository) CreateReferral(ctx context.Context, ref *Referral) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO referrals (referrer_id, referral_code, status, referrer_reward, referred_reward)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, ref.ReferrerID, ref.ReferralCode, ref.Status, ref.ReferrerReward, ref.ReferredReward,
	).Scan(&ref.ID, &ref.CreatedAt)
}

// FindReferralByCode reads a referral without locking. Returns sql.ErrNoRows when absent.
func (r *Repository) FindReferralByCode(ctx context.Context, tx *sqlx.Tx, code string) (*Referral, error) {
	var ref Referral
	err := tx.GetContext(ctx, &ref, `SELECT `+referralColumns+` FROM referrals WHERE referral_code = $1`, code)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *Repository) LockReferral(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Referral, error) {
	var ref Referral
	err := tx.GetContext(ctx, &ref, `SELECT `+referralColumns+` FROM referrals WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// WasReferred reports whether userID already redeemed any referral
func (r *Repository) WasReferred(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM referrals WHERE referred_user_id = $1)`, userID)
	return exists, err
}

func (r *Repository) CompleteReferral(ctx context.Context, tx *sqlx.Tx, ref *Referral) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE referrals SET
			status = $2,
			referred_user_id = $3,
			completed_at = $4
		WHERE id = $1
	`, ref.ID, ref.Status, ref.ReferredUserID, ref.CompletedAt)
	return err
}

// ReferralsByUser lists the referrals created by userID, newest first
func (r *Repository) ReferralsByUser(ctx context.Context, userID uuid.UUID) ([]Referral, error) {
	out := []Referral{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+referralColumns+`
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, userID)
	return out, err
}
