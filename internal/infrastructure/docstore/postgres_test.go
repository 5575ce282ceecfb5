package docstore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"loanshop/internal/infrastructure/docstore"
	"loanshop/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ docstore.DBPool = (pgxmock.PgxPoolIface)(nil)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *docstore.PostgresStore) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mockPool, docstore.NewPostgresStore(mockPool, logger)
}

func TestPostgresStore_Add(t *testing.T) {
	ctx := context.Background()
	mockPool, store := newMockStore(t)

	mockPool.ExpectExec("INSERT INTO documents").
		WithArgs("customers", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := store.Add(ctx, "customers", map[string]any{"nickname": "Som"})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectQuery("SELECT data FROM documents").
			WithArgs("customers", "abc").
			WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"nickname":"Som"}`)))

		doc, err := store.Get(ctx, "customers", "abc")

		require.NoError(t, err)
		assert.Equal(t, "abc", doc.ID)
		assert.Equal(t, "Som", doc.GetString("nickname"))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectQuery("SELECT data FROM documents").
			WithArgs("customers", "missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(ctx, "customers", "missing")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesFields", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectExec("UPDATE documents SET data").
			WithArgs("loans", "abc", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := store.Update(ctx, "loans", "abc", map[string]any{"status": "closed"})

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("MissingDocument", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectExec("UPDATE documents SET data").
			WithArgs("loans", "missing", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.Update(ctx, "loans", "missing", map[string]any{"status": "closed"})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStore_Query(t *testing.T) {
	ctx := context.Background()
	mockPool, store := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("a", []byte(`{"loanDate":"2025-01-05"}`)).
		AddRow("b", []byte(`{"loanDate":"2025-01-20"}`))
	mockPool.ExpectQuery(`SELECT id, data FROM documents WHERE collection = \$1 AND data->>'loanDate' >= \$2 AND data->>'loanDate' < \$3`).
		WithArgs("loans", "2025-01-01", "2025-02-01").
		WillReturnRows(rows)

	docs, err := store.Query(ctx, "loans", []docstore.Filter{
		{Field: "loanDate", Op: docstore.OpGreaterOrEqual, Value: "2025-01-01"},
		{Field: "loanDate", Op: docstore.OpLess, Value: "2025-02-01"},
	})

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_QueryNumericFilterUsesCast(t *testing.T) {
	ctx := context.Background()
	mockPool, store := newMockStore(t)

	mockPool.ExpectQuery(`\(data->>'year'\)::numeric = \$2`).
		WithArgs("monthly_reports", float64(2025)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "data"}))

	_, err := store.Query(ctx, "monthly_reports", []docstore.Filter{
		{Field: "year", Op: docstore.OpEqual, Value: float64(2025)},
	})

	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_QueryOrdersOnJSONBValue(t *testing.T) {
	ctx := context.Background()
	mockPool, store := newMockStore(t)

	// Ordering must compare the jsonb value so numeric fields like month
	// sort 12 after 9 instead of text-sorting "12" before "9".
	mockPool.ExpectQuery(`ORDER BY data->'year' DESC, data->'month' DESC`).
		WithArgs("monthly_reports").
		WillReturnRows(pgxmock.NewRows([]string{"id", "data"}))

	_, err := store.Query(ctx, "monthly_reports", nil,
		docstore.Order{Field: "year", Descending: true},
		docstore.Order{Field: "month", Descending: true},
	)

	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresStore_BatchCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("RunsInOneTransaction", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("UPDATE documents SET data").
			WithArgs("loans", "a", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec("DELETE FROM documents").
			WithArgs("loans", "b").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		batch := store.Batch()
		batch.Update("loans", "a", map[string]any{"status": "closed"})
		batch.Delete("loans", "b")

		assert.NoError(t, batch.Commit(ctx))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RollsBackOnFailure", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("UPDATE documents SET data").
			WithArgs("loans", "a", pgxmock.AnyArg()).
			WillReturnError(assert.AnError)
		mockPool.ExpectRollback()

		batch := store.Batch()
		batch.Update("loans", "a", map[string]any{"status": "closed"})

		assert.ErrorIs(t, batch.Commit(ctx), apperrors.ErrStore)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	mockPool, store := newMockStore(t)
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS documents").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
