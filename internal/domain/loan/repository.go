package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loanshop/internal/infrastructure/docstore"
	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Get(ctx context.Context, id string) (*Loan, error)
	Update(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Loan, error)
	// ListByMonth returns loans whose loanDate falls inside the given
	// calendar month.
	ListByMonth(ctx context.Context, year, month int) ([]*Loan, error)
	// BulkUpdateStatus flips the status of every listed loan in one
	// atomic batch.
	BulkUpdateStatus(ctx context.Context, ids []string, status Status, at time.Time) error
	// BulkDelete removes every listed loan in one atomic batch.
	BulkDelete(ctx context.Context, ids []string) error
}

type storeRepository struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) Repository {
	return &storeRepository{store: store, logger: logger.With(slog.String("component", "loan_repository"))}
}

func (r *storeRepository) Create(ctx context.Context, l *Loan) error {
	id, err := r.store.Add(ctx, Collection, l.ToDoc())
	if err != nil {
		return apperrors.WrapStoreError(err, "adding loan")
	}
	l.ID = id
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (*Loan, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, apperrors.WrapStoreError(err, fmt.Sprintf("getting loan %s", id))
	}
	return FromDoc(doc), nil
}

func (r *storeRepository) Update(ctx context.Context, l *Loan) error {
	if err := r.store.Set(ctx, Collection, l.ID, l.ToDoc()); err != nil {
		return apperrors.WrapStoreError(err, fmt.Sprintf("updating loan %s", l.ID))
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return apperrors.WrapStoreError(err, fmt.Sprintf("deleting loan %s", id))
	}
	return nil
}

func (r *storeRepository) List(ctx context.Context) ([]*Loan, error) {
	docs, err := r.store.Query(ctx, Collection, nil, docstore.Order{Field: "loanDate", Descending: true})
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "listing loans")
	}
	return fromDocs(docs), nil
}

func (r *storeRepository) ListByMonth(ctx context.Context, year, month int) ([]*Loan, error) {
	start, end := thaidate.MonthBounds(year, month)
	filters := []docstore.Filter{
		{Field: "loanDate", Op: docstore.OpGreaterOrEqual, Value: start},
		{Field: "loanDate", Op: docstore.OpLess, Value: end},
	}
	docs, err := r.store.Query(ctx, Collection, filters)
	if err == nil {
		return fromDocs(docs), nil
	}

	// A range query needs a composite index on some backends; degrade
	// to a full fetch filtered here rather than failing the read.
	r.logger.WarnContext(ctx, "month query failed, falling back to full scan",
		slog.Int("year", year), slog.Int("month", month), slog.Any("error", err))
	monitoring.RecordIndexFallback()

	docs, err = r.store.Query(ctx, Collection, nil)
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "listing loans for month")
	}
	loans := make([]*Loan, 0)
	for _, doc := range docs {
		d := doc.GetString("loanDate")
		if d >= start && d < end {
			loans = append(loans, FromDoc(doc))
		}
	}
	return loans, nil
}

func (r *storeRepository) BulkUpdateStatus(ctx context.Context, ids []string, status Status, at time.Time) error {
	batch := r.store.Batch()
	patch := map[string]any{
		"status":    string(status),
		"updatedAt": at.UTC().Format(time.RFC3339),
	}
	for _, id := range ids {
		batch.Update(Collection, id, patch)
	}
	if err := batch.Commit(ctx); err != nil {
		return apperrors.WrapStoreError(err, "bulk updating loan status")
	}
	return nil
}

func (r *storeRepository) BulkDelete(ctx context.Context, ids []string) error {
	batch := r.store.Batch()
	for _, id := range ids {
		batch.Delete(Collection, id)
	}
	if err := batch.Commit(ctx); err != nil {
		return apperrors.WrapStoreError(err, "bulk deleting loans")
	}
	return nil
}

func fromDocs(docs []docstore.Document) []*Loan {
	loans := make([]*Loan, 0, len(docs))
	for _, doc := range docs {
		loans = append(loans, FromDoc(doc))
	}
	return loans
}
