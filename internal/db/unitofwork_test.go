package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

const insertProject = `INSERT INTO projects (id, name, budgeted_hours, created_at, updated_at)
	VALUES (?, ?, ?, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`

func budgetOf(t *testing.T, database *sql.DB, id string) (string, bool) {
	t.Helper()
	var budget string
	err := database.QueryRow(`SELECT budgeted_hours FROM projects WHERE id = ?`, id).Scan(&budget)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	require.NoError(t, err)
	return budget, true
}

func TestWithinTx_CommitsEveryWrite(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, insertProject, "atlas", "Atlas", "1000"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE projects SET budgeted_hours = ? WHERE id = ?`, "1200.5", "atlas")
		return err
	})
	require.NoError(t, err)

	budget, found := budgetOf(t, database, "atlas")
	assert.True(t, found)
	assert.Equal(t, "1200.5", budget)
}

func TestWithinTx_ErrorRollsBackEarlierWrites(t *testing.T) {
	database, uow := openUoW(t)
	failure := errors.New("budget check failed")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, insertProject, "atlas", "Atlas", "1000"); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, found := budgetOf(t, database, "atlas")
	assert.False(t, found, "insert must not survive the rollback")
}

func TestWithinTx_PanicRollsBackAndRepanics(t *testing.T) {
	database, uow := openUoW(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_, _ = tx.ExecContext(ctx, insertProject, "atlas", "Atlas", "1000")
			panic("boom")
		})
	})

	_, found := budgetOf(t, database, "atlas")
	assert.False(t, found)
}

func TestWithinTx_ConstraintViolationSurfaces(t *testing.T) {
	database, uow := openUoW(t)
	_, err := database.Exec(insertProject, "atlas", "Atlas", "1000")
	require.NoError(t, err)

	err = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, insertProject, "atlas", "Atlas again", "10")
		return err
	})
	require.Error(t, err)

	budget, _ := budgetOf(t, database, "atlas")
	assert.Equal(t, "1000", budget)
}

func TestWithinTx_CommitHooksRunAfterCommit(t *testing.T) {
	_, uow := openUoW(t)

	var ran []string
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		db.AfterCommit(ctx, func() { ran = append(ran, "notify consultant") })
		db.AfterCommit(ctx, func() { ran = append(ran, "notify manager") })
		assert.Empty(t, ran, "hooks must not run inside the transaction")
		_, err := tx.ExecContext(ctx, insertProject, "atlas", "Atlas", "1000")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"notify consultant", "notify manager"}, ran)
}

func TestWithinTx_CommitHooksDroppedOnRollback(t *testing.T) {
	_, uow := openUoW(t)

	ran := false
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		db.AfterCommit(ctx, func() { ran = true })
		return errors.New("stale state")
	})
	require.Error(t, err)
	assert.False(t, ran)
}

func TestAfterCommit_OutsideTxRunsImmediately(t *testing.T) {
	ran := false
	db.AfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)
}
