package progression

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvy/luvy-api/internal/domain/wallet"
	"github.com/luvy/luvy-api/internal/pkg/apperr"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/events"
)

var (
	levelCols = []string{
		"user_id", "level", "current_xp", "total_luvy_earned", "receipts_submitted",
		"consecutive_days", "last_active_date", "created_at", "updated_at",
	}
	achievementCols = []string{
		"id", "code", "name", "description", "category", "icon", "requirement", "reward", "is_active", "created_at",
	}
	challengeCols = []string{
		"id", "code", "name", "description", "period", "category", "requirement", "reward",
		"start_date", "end_date", "is_active", "created_at",
	}
	userChallengeCols = []string{
		"id", "user_id", "challenge_id", "progress", "target", "status", "completed_at", "created_at", "updated_at",
	}
	referralCols = []string{
		"id", "referrer_id", "referred_user_id", "referral_code", "status",
		"referrer_reward", "referred_reward", "completed_at", "created_at",
	}
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeLedger struct {
	credits []wallet.CreditRequest
	locked  [][]uuid.UUID
}

func (f *fakeLedger) CreditTx(_ context.Context, _ *database.Tx, req wallet.CreditRequest) (*wallet.Result, error) {
	f.credits = append(f.credits, req)
	return &wallet.Result{}, nil
}

func (f *fakeLedger) LockWallets(_ context.Context, _ *database.Tx, ids ...uuid.UUID) error {
	f.locked = append(f.locked, ids)
	return nil
}

type fixture struct {
	svc       *Service
	db        *sqlx.DB
	mock      sqlmock.Sqlmock
	ledger    *fakeLedger
	publisher *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	db := sqlx.NewDb(raw, "postgres")
	f := &fixture{db: db, mock: mock, ledger: &fakeLedger{}, publisher: &events.Recorder{}}
	f.svc = NewService(db, NewRepository(db), f.ledger, f.publisher, ReferralRewards{
		Referrer: d("50.00"),
		Referred: d("25.00"),
	})
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) expectLevel(userID uuid.UUID, level Level, total string, receipts int64, streak int, last *time.Time) {
	f.mock.ExpectExec("INSERT INTO user_levels").WillReturnResult(sqlmock.NewResult(0, 0))
	var lastActive interface{}
	if last != nil {
		lastActive = *last
	}
	f.mock.ExpectQuery("FROM user_levels WHERE user_id = \\$1 FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(levelCols).
			AddRow(userID.String(), string(level), 100, total, receipts, streak, lastActive, testNow, testNow))
}

func (f *fixture) expectLevelUpdate() {
	f.mock.ExpectQuery("UPDATE user_levels SET").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))
}

func TestRecordEarn_LevelUpAndStreak(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	yesterday := testNow.AddDate(0, 0, -1)

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelBronze, "450.00", 3, 2, &yesterday)
	f.mock.ExpectQuery("UPDATE user_levels SET").
		WithArgs(userID, LevelSilver, int64(1100), sqlmock.AnyArg(), int64(4), 3, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))
	f.mock.ExpectCommit()

	change, err := f.svc.RecordEarn(context.Background(), userID, d("100.00"))
	require.NoError(t, err)

	assert.True(t, change.LeveledUp)
	assert.Equal(t, LevelBronze, change.Before)
	assert.Equal(t, LevelSilver, change.After)
	assert.True(t, d("550").Equal(change.UserLevel.TotalLuvyEarned))
	assert.Equal(t, 3, change.UserLevel.ConsecutiveDays)
	assert.Equal(t, [][]uuid.UUID{{userID}}, f.ledger.locked, "wallet is locked before progression rows")
	assert.Equal(t, []string{events.ProgressionLevelUp}, f.publisher.Types())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecordEarn_NoLevelUp(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelGold, "2100.00", 40, 0, nil)
	f.expectLevelUpdate()
	f.mock.ExpectCommit()

	change, err := f.svc.RecordEarn(context.Background(), userID, d("10.00"))
	require.NoError(t, err)
	assert.False(t, change.LeveledUp)
	assert.Equal(t, 1, change.UserLevel.ConsecutiveDays)
	assert.Empty(t, f.publisher.Events)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func achievementRow(rows *sqlmock.Rows, id uuid.UUID, code, requirement string, reward interface{}) *sqlmock.Rows {
	return rows.AddRow(id.String(), code, code, "desc", "receipt", nil, requirement, reward, true, testNow)
}

func TestEvaluateAchievements_UnlocksAndPaysOnce(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	tenReceipts := uuid.New()
	bigEarner := uuid.New()

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelSilver, "600.00", 10, 1, &testNow)
	rows := sqlmock.NewRows(achievementCols)
	achievementRow(rows, tenReceipts, "ten_receipts", `{"type":"receipts","value":10}`, `{"luvy":"25.00"}`)
	achievementRow(rows, bigEarner, "big_earner", `{"type":"luvy","value":1000}`, `{"luvy":"100.00"}`)
	f.mock.ExpectQuery("FROM achievements a").WillReturnRows(rows)
	f.mock.ExpectQuery("INSERT INTO user_achievements").
		WithArgs(userID, tenReceipts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	f.mock.ExpectCommit()

	unlocked, err := f.svc.EvaluateAchievements(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, unlocked, 1)
	assert.Equal(t, "ten_receipts", unlocked[0].Code)
	require.Len(t, f.ledger.credits, 1)
	credit := f.ledger.credits[0]
	assert.Equal(t, wallet.TransactionTypeBonus, credit.Type)
	assert.True(t, d("25").Equal(credit.Amount))
	assert.Equal(t, wallet.AchievementRef{AchievementID: tenReceipts}, credit.Reference)
	assert.Equal(t, []string{events.ProgressionAchievementUnlocked}, f.publisher.Types())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestEvaluateAchievements_LostRacePaysNothing(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelBronze, "50.00", 1, 1, &testNow)
	rows := sqlmock.NewRows(achievementCols)
	achievementRow(rows, uuid.New(), "first_receipt", `{"type":"receipts","value":1}`, `{"luvy":"5.00"}`)
	f.mock.ExpectQuery("FROM achievements a").WillReturnRows(rows)
	f.mock.ExpectQuery("INSERT INTO user_achievements").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectCommit()

	unlocked, err := f.svc.EvaluateAchievements(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
	assert.Empty(t, f.ledger.credits)
	assert.Empty(t, f.publisher.Events)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestEvaluateAchievements_NoRewardStillUnlocks(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelBronze, "50.00", 0, 7, &testNow)
	rows := sqlmock.NewRows(achievementCols)
	achievementRow(rows, uuid.New(), "week_streak", `{"type":"streak","value":7}`, nil)
	f.mock.ExpectQuery("FROM achievements a").WillReturnRows(rows)
	f.mock.ExpectQuery("INSERT INTO user_achievements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	f.mock.ExpectCommit()

	unlocked, err := f.svc.EvaluateAchievements(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)
	assert.Empty(t, f.ledger.credits)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func challengeRows(id uuid.UUID, target int64, reward string) *sqlmock.Rows {
	return sqlmock.NewRows(challengeCols).AddRow(
		id.String(), "weekly_3", "Three receipts", "desc", "weekly", "receipt",
		`{"value":`+strconv.FormatInt(target, 10)+`}`, `{"luvy":"`+reward+`"}`,
		testNow.AddDate(0, 0, -3), testNow.AddDate(0, 0, 4), true, testNow,
	)
}

func userChallengeRow(userID, challengeID uuid.UUID, progress, target int64, status ChallengeStatus) *sqlmock.Rows {
	return sqlmock.NewRows(userChallengeCols).AddRow(
		uuid.NewString(), userID.String(), challengeID.String(), progress, target, string(status), nil, testNow, testNow,
	)
}

func TestAdvanceChallenge_CompletesOnce(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	challengeID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM challenges c").
		WithArgs(ChallengeReceipt, testNow).
		WillReturnRows(challengeRows(challengeID, 3, "50.00"))
	f.mock.ExpectExec("INSERT INTO user_challenges").
		WithArgs(userID, challengeID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery("FROM user_challenges").
		WillReturnRows(userChallengeRow(userID, challengeID, 2, 3, ChallengeActive))
	f.mock.ExpectQuery("UPDATE user_challenges SET").
		WithArgs(sqlmock.AnyArg(), int64(3), ChallengeCompleted, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))
	f.mock.ExpectCommit()

	completed, err := f.svc.AdvanceChallenge(context.Background(), userID, ChallengeReceipt, 1)
	require.NoError(t, err)

	require.Len(t, completed, 1)
	require.Len(t, f.ledger.credits, 1)
	assert.True(t, d("50").Equal(f.ledger.credits[0].Amount))
	assert.Equal(t, wallet.ChallengeRef{ChallengeID: challengeID}, f.ledger.credits[0].Reference)
	assert.Equal(t, []string{events.ProgressionChallengeCompleted}, f.publisher.Types())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceChallenge_CompletedIsNotRetriggered(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	challengeID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM challenges c").WillReturnRows(challengeRows(challengeID, 3, "50.00"))
	f.mock.ExpectExec("INSERT INTO user_challenges").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectQuery("FROM user_challenges").
		WillReturnRows(userChallengeRow(userID, challengeID, 3, 3, ChallengeCompleted))
	f.mock.ExpectCommit()

	completed, err := f.svc.AdvanceChallenge(context.Background(), userID, ChallengeReceipt, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Empty(t, f.ledger.credits)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceChallenge_PartialProgress(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	challengeID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM challenges c").WillReturnRows(challengeRows(challengeID, 5, "10.00"))
	f.mock.ExpectExec("INSERT INTO user_challenges").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery("FROM user_challenges").
		WillReturnRows(userChallengeRow(userID, challengeID, 0, 5, ChallengeActive))
	f.mock.ExpectQuery("UPDATE user_challenges SET").
		WithArgs(sqlmock.AnyArg(), int64(1), ChallengeActive, nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testNow))
	f.mock.ExpectCommit()

	completed, err := f.svc.AdvanceChallenge(context.Background(), userID, ChallengeReceipt, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Empty(t, f.ledger.credits)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdvanceChallenge_InvalidDelta(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.AdvanceChallenge(context.Background(), uuid.New(), ChallengeReceipt, 0)
	assert.ErrorIs(t, err, ErrInvalidDelta)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAfterDebit_AdvancesSpendingChallenges(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM challenges c").
		WithArgs(ChallengeSpending, testNow).
		WillReturnRows(sqlmock.NewRows(challengeCols))
	f.mock.ExpectCommit()

	err := database.WithTx(context.Background(), f.db, func(tx *database.Tx) error {
		return f.svc.AfterDebit(context.Background(), tx, userID, d("10"))
	})
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOnReceiptApprovedTx(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.expectLevel(userID, LevelBronze, "0", 0, 0, nil)
	f.expectLevelUpdate()
	f.mock.ExpectQuery("FROM challenges c").WillReturnRows(sqlmock.NewRows(challengeCols))
	rows := sqlmock.NewRows(achievementCols)
	achievementRow(rows, uuid.New(), "first_receipt", `{"type":"receipts","value":1}`, `{"luvy":"5.00"}`)
	f.mock.ExpectQuery("FROM achievements a").WillReturnRows(rows)
	f.mock.ExpectQuery("INSERT INTO user_achievements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	f.mock.ExpectCommit()

	var progress *Progress
	err := database.WithTx(context.Background(), f.db, func(tx *database.Tx) error {
		var err error
		progress, err = f.svc.OnReceiptApprovedTx(context.Background(), tx, userID, d("200.00"))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), progress.Level.UserLevel.ReceiptsSubmitted)
	assert.Equal(t, int64(2000), progress.Level.UserLevel.CurrentXP-100)
	assert.Len(t, progress.Achievements, 1, "first receipt counts toward achievements")
	assert.Empty(t, progress.Challenges)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateReferral_RetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	codes := []string{"LUVYAAAAAA", "LUVYBBBBBB"}
	f.svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	f.mock.ExpectQuery("INSERT INTO referrals").
		WithArgs(userID, "LUVYAAAAAA", ReferralPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	f.mock.ExpectQuery("INSERT INTO referrals").
		WithArgs(userID, "LUVYBBBBBB", ReferralPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.NewString(), testNow))

	ref, err := f.svc.CreateReferral(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "LUVYBBBBBB", ref.ReferralCode)
	assert.True(t, d("50").Equal(ref.ReferrerReward))
	assert.True(t, d("25").Equal(ref.ReferredReward))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateReferral_GivesUp(t *testing.T) {
	f := newFixture(t)
	f.svc.newCode = func() (string, error) { return "LUVYSAME00", nil }

	for i := 0; i < referralAttempts; i++ {
		f.mock.ExpectQuery("INSERT INTO referrals").WillReturnError(&pq.Error{Code: "23505"})
	}

	_, err := f.svc.CreateReferral(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCodeExhausted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := generateReferralCode()
	require.NoError(t, err)
	assert.Regexp(t, `^LUVY[0-9A-Z]{6}$`, code)
}

func referralRow(id, referrer uuid.UUID, code string, status ReferralStatus) *sqlmock.Rows {
	return sqlmock.NewRows(referralCols).
		AddRow(id.String(), referrer.String(), nil, code, string(status), "50.00", "25.00", nil, testNow)
}

func TestCompleteReferral(t *testing.T) {
	f := newFixture(t)
	referrer := uuid.New()
	newUser := uuid.New()
	refID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM referrals WHERE referral_code = \\$1").
		WithArgs("LUVYABC123").
		WillReturnRows(referralRow(refID, referrer, "LUVYABC123", ReferralPending))
	f.mock.ExpectQuery("FROM referrals WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(referralRow(refID, referrer, "LUVYABC123", ReferralPending))
	f.mock.ExpectQuery("SELECT EXISTS").WithArgs(newUser).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectExec("UPDATE referrals SET").
		WithArgs(refID, ReferralCompleted, newUser, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	ref, err := f.svc.CompleteReferral(context.Background(), " luvyabc123 ", newUser)
	require.NoError(t, err)

	assert.Equal(t, ReferralCompleted, ref.Status)
	require.NotNil(t, ref.ReferredUserID)
	assert.Equal(t, newUser, *ref.ReferredUserID)
	assert.ElementsMatch(t, []uuid.UUID{referrer, newUser}, f.ledger.locked[0])

	require.Len(t, f.ledger.credits, 2)
	assert.Equal(t, referrer, f.ledger.credits[0].UserID)
	assert.True(t, d("50").Equal(f.ledger.credits[0].Amount))
	assert.Equal(t, newUser, f.ledger.credits[1].UserID)
	assert.True(t, d("25").Equal(f.ledger.credits[1].Amount))
	for _, c := range f.ledger.credits {
		assert.Equal(t, wallet.ReferralRef{ReferralID: refID}, c.Reference)
		assert.Equal(t, wallet.TransactionTypeBonus, c.Type)
	}
	assert.Equal(t, []string{events.ReferralCompleted}, f.publisher.Types())
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCompleteReferral_Rejections(t *testing.T) {
	referrer := uuid.New()
	refID := uuid.New()

	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM referrals WHERE referral_code").WillReturnRows(sqlmock.NewRows(referralCols))
		f.mock.ExpectRollback()

		_, err := f.svc.CompleteReferral(context.Background(), "LUVYNOPE00", uuid.New())
		assert.ErrorIs(t, err, ErrReferralNotFound)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("self referral", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM referrals WHERE referral_code").
			WillReturnRows(referralRow(refID, referrer, "LUVYSELF00", ReferralPending))
		f.mock.ExpectRollback()

		_, err := f.svc.CompleteReferral(context.Background(), "LUVYSELF00", referrer)
		assert.ErrorIs(t, err, ErrSelfReferral)
		assert.Empty(t, f.ledger.locked)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("already used", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM referrals WHERE referral_code").
			WillReturnRows(referralRow(refID, referrer, "LUVYUSED00", ReferralPending))
		f.mock.ExpectQuery("FOR UPDATE").
			WillReturnRows(referralRow(refID, referrer, "LUVYUSED00", ReferralCompleted))
		f.mock.ExpectRollback()

		_, err := f.svc.CompleteReferral(context.Background(), "LUVYUSED00", uuid.New())
		assert.ErrorIs(t, err, ErrReferralUsed)
		assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
		assert.Empty(t, f.ledger.credits)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("user already referred", func(t *testing.T) {
		f := newFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM referrals WHERE referral_code").
			WillReturnRows(referralRow(refID, referrer, "LUVYTWICE0", ReferralPending))
		f.mock.ExpectQuery("FOR UPDATE").
			WillReturnRows(referralRow(refID, referrer, "LUVYTWICE0", ReferralPending))
		f.mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		f.mock.ExpectRollback()

		_, err := f.svc.CompleteReferral(context.Background(), "LUVYTWICE0", uuid.New())
		assert.ErrorIs(t, err, ErrAlreadyReferred)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestGetUserLevel_DefaultsToBronze(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.mock.ExpectQuery("FROM user_levels WHERE user_id = \\$1").WillReturnRows(sqlmock.NewRows(levelCols))

	l, err := f.svc.GetUserLevel(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, LevelBronze, l.Level)
	assert.True(t, l.TotalLuvyEarned.IsZero())

	resp := LevelResponseFromEntity(l)
	require.NotNil(t, resp.NextLevel)
	assert.Equal(t, LevelSilver, *resp.NextLevel)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateChallenge_Validation(t *testing.T) {
	f := newFixture(t)
	base := Challenge{
		Code:      "c",
		Goal:      Goal{Target: 3},
		Reward:    Reward{Luvy: d("10")},
		StartDate: testNow,
		EndDate:   testNow.Add(time.Hour),
	}

	noTarget := base
	noTarget.Goal.Target = 0
	noReward := base
	noReward.Reward = Reward{}
	backwards := base
	backwards.EndDate = testNow.Add(-time.Hour)

	for _, c := range []Challenge{noTarget, noReward, backwards} {
		err := f.svc.CreateChallenge(context.Background(), &c)
		assert.ErrorIs(t, err, ErrInvalidChallenge)
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateAchievement_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery("INSERT INTO achievements").WillReturnError(&pq.Error{Code: "23505"})

	err := f.svc.CreateAchievement(context.Background(), &Achievement{
		Code:        "dup",
		Requirement: RequirementSpec{ReceiptsRequirement{Count: 1}},
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
