package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTx_Commit(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(tx *Tx) error {
		_, err := tx.Exec("UPDATE wallets SET total_balance = 1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db, mock := newMock(t)
	wantErr := errors.New("business rule")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, func(tx *Tx) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_ClassifiesDeadlock(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE market_data").WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, func(tx *Tx) error {
		_, err := tx.Exec("UPDATE market_data SET token_value = 1")
		return err
	})

	assert.True(t, apperr.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailure(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err := WithTx(context.Background(), db, func(tx *Tx) error { return nil })

	assert.True(t, apperr.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_AfterCommitHooks(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	var order []int
	err := WithTx(context.Background(), db, func(tx *Tx) error {
		tx.AfterCommit(func(context.Context) { order = append(order, 1) })
		tx.AfterCommit(func(context.Context) { order = append(order, 2) })
		assert.Empty(t, order, "hooks must not run before commit")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_HooksDiscardedOnRollback(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	ran := false
	err := WithTx(context.Background(), db, func(tx *Tx) error {
		tx.AfterCommit(func(context.Context) { ran = true })
		return errors.New("abort")
	})

	assert.Error(t, err)
	assert.False(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}
