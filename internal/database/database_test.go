package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockService(t *testing.T) (Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewFromDB(db), mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM posts").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := svc.WithTx(context.Background(), func(q Querier) error {
		_, err := q.Exec(context.Background(), "DELETE FROM posts WHERE user_id = $1", "u1")
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	svc, mock := newMockService(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.WithTx(context.Background(), func(q Querier) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = svc.WithTx(context.Background(), func(q Querier) error {
			panic("kaput")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginError(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err := svc.WithTx(context.Background(), func(q Querier) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}

func TestWithTx_CommitError(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(sql.ErrTxDone)

	err := svc.WithTx(context.Background(), func(q Querier) error { return nil })

	assert.ErrorIs(t, err, sql.ErrTxDone)
}

func TestMigrate_UsesEmbeddedDirectory(t *testing.T) {
	svc, _ := newMockService(t)

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, svc.Migrate(context.Background()))
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	svc, _ := newMockService(t)

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("syntax error at or near")
	}

	err := svc.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migrations")
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "00001_create_users.sql", entries[0].Name())
	assert.Equal(t, "00002_create_posts.sql", entries[1].Name())
}

func TestHealth_Down(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	stats := NewFromDB(db).Health(context.Background())
	assert.Equal(t, "down", stats["status"])
	assert.Contains(t, stats["error"], "connection refused")
}
