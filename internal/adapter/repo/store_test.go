package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestDo_UnreachableServerBecomesUnavailable(t *testing.T) {
	// "no-slash" is not a parseable DSN, so open fails immediately and
	// Do never reaches the operation.
	s := NewStore("no-slash", StoreOptions{})
	defer s.Close()

	called := false
	err := s.Do(context.Background(), func(*sql.DB) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, usecase.ErrUnavailable)
	assert.False(t, called)
}

func TestDo_OneRetryAbsorbsDroppedConnection(t *testing.T) {
	db1, mock1 := newMockDB(t)
	db2, mock2 := newMockDB(t)

	s := NewStoreWithDB(db1)
	s.open = func() (*sql.DB, error) { return db2, nil }

	mock1.ExpectExec("UPDATE orders").WillReturnError(errors.New("broken pipe"))
	mock2.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))

	calls := 0
	err := s.Do(context.Background(), func(db *sql.DB) error {
		calls++
		_, e := db.ExecContext(context.Background(), "UPDATE orders SET status = 'paid'")
		return e
	})

	require.NoError(t, err, "one dropped connection must be absorbed by the retry")
	assert.Equal(t, 2, calls, "the op runs once on the dead handle and once on the fresh one")
	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestDo_RetryableFailureThenDeadServerBecomesUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStoreWithDB(db) // reopen is not configured, so the reconnect fails

	mock.ExpectExec("UPDATE orders").WillReturnError(errors.New("broken pipe"))

	calls := 0
	err := s.Do(context.Background(), func(db *sql.DB) error {
		calls++
		_, e := db.ExecContext(context.Background(), "UPDATE orders SET status = 'paid'")
		return e
	})

	assert.ErrorIs(t, err, usecase.ErrUnavailable)
	assert.Equal(t, 1, calls, "the op must not rerun when the reconnect fails")
}

func TestDo_DomainOutcomesAreNotRetried(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStoreWithDB(db)

	mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrNoRows)

	err := s.Do(context.Background(), func(db *sql.DB) error {
		return db.QueryRowContext(context.Background(), "SELECT 1").Scan(new(int))
	})

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet(), "a no-rows result must run the op exactly once")
}

func TestDo_ServerErrorsAreNotRetried(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewStoreWithDB(db)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	mock.ExpectExec("INSERT INTO orders").WillReturnError(dup)

	err := s.Do(context.Background(), func(db *sql.DB) error {
		_, e := db.ExecContext(context.Background(), "INSERT INTO orders VALUES (1)")
		return e
	})

	var me *mysql.MySQLError
	assert.ErrorAs(t, err, &me)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(sql.ErrNoRows))
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(context.DeadlineExceeded))
	assert.False(t, retryable(&mysql.MySQLError{Number: 1062}), "the server answered")
	assert.True(t, retryable(errors.New("broken pipe")))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateKey(errors.New("not mysql")))
	assert.False(t, isDuplicateKey(nil))
}
