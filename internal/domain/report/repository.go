package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"loanshop/internal/infrastructure/docstore"
	"loanshop/internal/infrastructure/monitoring"
	"loanshop/internal/pkg/apperrors"
	"loanshop/internal/pkg/thaidate"
)

type Repository interface {
	// Upsert stores the report under its month key, replacing any
	// previous snapshot for that month.
	Upsert(ctx context.Context, r *MonthlyReport) error
	Get(ctx context.Context, year, month int) (*MonthlyReport, error)
	// List returns every stored report, newest month first.
	List(ctx context.Context) ([]*MonthlyReport, error)
}

type storeRepository struct {
	store  docstore.Store
	logger *slog.Logger
}

func NewRepository(store docstore.Store, logger *slog.Logger) Repository {
	return &storeRepository{store: store, logger: logger.With(slog.String("component", "report_repository"))}
}

func (r *storeRepository) Upsert(ctx context.Context, rep *MonthlyReport) error {
	key := thaidate.MonthKey(rep.Year, rep.Month)
	if err := r.store.Set(ctx, Collection, key, rep.ToDoc()); err != nil {
		return apperrors.WrapStoreError(err, fmt.Sprintf("upserting monthly report %s", key))
	}
	return nil
}

func (r *storeRepository) Get(ctx context.Context, year, month int) (*MonthlyReport, error) {
	doc, err := r.store.Get(ctx, Collection, thaidate.MonthKey(year, month))
	if err != nil {
		return nil, apperrors.WrapStoreError(err, fmt.Sprintf("getting monthly report %s", thaidate.MonthKey(year, month)))
	}
	return FromDoc(doc), nil
}

func (r *storeRepository) List(ctx context.Context) ([]*MonthlyReport, error) {
	orders := []docstore.Order{
		{Field: "year", Descending: true},
		{Field: "month", Descending: true},
	}
	docs, err := r.store.Query(ctx, Collection, nil, orders...)
	if err == nil {
		return fromDocs(docs), nil
	}

	// Ordering on two fields needs a composite index; without one,
	// fetch unordered and sort here.
	r.logger.WarnContext(ctx, "ordered report query failed, sorting in memory", slog.Any("error", err))
	monitoring.RecordIndexFallback()

	docs, err = r.store.Query(ctx, Collection, nil)
	if err != nil {
		return nil, apperrors.WrapStoreError(err, "listing monthly reports")
	}
	reports := fromDocs(docs)
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Year != reports[j].Year {
			return reports[i].Year > reports[j].Year
		}
		return reports[i].Month > reports[j].Month
	})
	return reports, nil
}

func fromDocs(docs []docstore.Document) []*MonthlyReport {
	reports := make([]*MonthlyReport, 0, len(docs))
	for _, doc := range docs {
		reports = append(reports, FromDoc(doc))
	}
	return reports
}
