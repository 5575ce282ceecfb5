package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DBPool = (*pgxpool.Pool)(nil)

// PostgresStore keeps every collection in one JSONB table, so the service
// talks to Postgres the way it talked to the original document database:
// whole documents in, whole documents out.
type PostgresStore struct {
	db     DBPool
	logger *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db DBPool, logger *slog.Logger) *PostgresStore {
	if db == nil {
		panic("DBPool cannot be nil for PostgresStore")
	}
	return &PostgresStore{db: db, logger: logger.With("component", "PostgresStore")}
}

// EnsureSchema creates the documents table on first start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            id         TEXT NOT NULL,
            data       JSONB NOT NULL,
            PRIMARY KEY (collection, id)
        )`)
	if err != nil {
		return apperrors.WrapStoreError(err, "failed to ensure documents table")
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	start := time.Now()

	body, err := json.Marshal(data)
	if err != nil {
		return "", apperrors.WrapStoreError(err, "failed to encode document")
	}

	_, err = s.db.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`, collection, id, body)
	monitoring.RecordStoreOperation("add", statusLabel(err), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert document", "collection", collection, "error", err)
		return "", apperrors.WrapStoreError(err, "failed to add document")
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	start := time.Now()
	var body []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&body)
	monitoring.RecordStoreOperation("get", statusLabel(err), time.Since(start))
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
	}
	if err != nil {
		return Document{}, apperrors.WrapStoreError(err, "failed to get document")
	}

	data := map[string]any{}
	if err := json.Unmarshal(body, &data); err != nil {
		return Document{}, apperrors.WrapStoreError(err, "failed to decode document")
	}
	return Document{ID: id, Data: data}, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	start := time.Now()
	body, err := json.Marshal(data)
	if err != nil {
		return apperrors.WrapStoreError(err, "failed to encode document")
	}

	_, err = s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`, collection, id, body)
	monitoring.RecordStoreOperation("set", statusLabel(err), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upsert document", "collection", collection, "id", id, "error", err)
		return apperrors.WrapStoreError(err, "failed to set document")
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	body, err := json.Marshal(fields)
	if err != nil {
		return apperrors.WrapStoreError(err, "failed to encode partial document")
	}

	tag, err := s.db.Exec(ctx, `UPDATE documents SET data = data || $3 WHERE collection = $1 AND id = $2`, collection, id, body)
	monitoring.RecordStoreOperation("update", statusLabel(err), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update document", "collection", collection, "id", id, "error", err)
		return apperrors.WrapStoreError(err, "failed to update document")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	_, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	monitoring.RecordStoreOperation("delete", statusLabel(err), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete document", "collection", collection, "id", id, "error", err)
		return apperrors.WrapStoreError(err, "failed to delete document")
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error) {
	sql, args := buildQuery(collection, filters, orders)

	start := time.Now()
	rows, err := s.db.Query(ctx, sql, args...)
	monitoring.RecordStoreOperation("query", statusLabel(err), time.Since(start))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to query documents", "collection", collection, "error", err)
		return nil, apperrors.WrapStoreError(err, "failed to query documents")
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, apperrors.WrapStoreError(err, "failed to scan document row")
		}
		data := map[string]any{}
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, apperrors.WrapStoreError(err, "failed to decode document")
		}
		result = append(result, Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStoreError(err, "failed to iterate document rows")
	}
	return result, nil
}

func (s *PostgresStore) Batch() Batch {
	return &postgresBatch{store: s}
}

type postgresBatch struct {
	store *PostgresStore
	ops   []batchOp
}

func (b *postgresBatch) Update(collection, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, fields: fields})
}

func (b *postgresBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, delete: true})
}

// Commit runs the queued operations inside a single transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	tx, err := b.store.db.Begin(ctx)
	if err != nil {
		return apperrors.WrapStoreError(err, "failed to begin batch transaction")
	}
	defer tx.Rollback(ctx)

	for _, op := range b.ops {
		if op.delete {
			if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, op.collection, op.id); err != nil {
				return apperrors.WrapStoreError(err, "failed to delete document in batch")
			}
			continue
		}
		body, err := json.Marshal(op.fields)
		if err != nil {
			return apperrors.WrapStoreError(err, "failed to encode partial document")
		}
		if _, err := tx.Exec(ctx, `UPDATE documents SET data = data || $3 WHERE collection = $1 AND id = $2`, op.collection, op.id, body); err != nil {
			return apperrors.WrapStoreError(err, "failed to update document in batch")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.WrapStoreError(err, "failed to commit batch")
	}
	return nil
}

func buildQuery(collection string, filters []Filter, orders []Order) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		op := sqlOperator(f.Op)
		if num, ok := toFloat(f.Value); ok {
			args = append(args, num)
			fmt.Fprintf(&sb, ` AND (data->>'%s')::numeric %s $%d`, f.Field, op, len(args))
		} else {
			args = append(args, fmt.Sprintf("%v", f.Value))
			fmt.Fprintf(&sb, ` AND data->>'%s' %s $%d`, f.Field, op, len(args))
		}
	}

	if len(orders) > 0 {
		sb.WriteString(` ORDER BY `)
		for i, o := range orders {
			if i > 0 {
				sb.WriteString(`, `)
			}
			// Order on the jsonb value, not its text rendering: jsonb
			// comparison sorts numbers numerically (12 after 9) while
			// string fields keep their lexicographic order.
			fmt.Fprintf(&sb, `data->'%s'`, o.Field)
			if o.Descending {
				sb.WriteString(` DESC`)
			}
		}
	}
	return sb.String(), args
}

func sqlOperator(op Operator) string {
	if op == OpEqual {
		return "="
	}
	return string(op)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
