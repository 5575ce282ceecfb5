package customer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"loanshop/internal/infrastructure/docstore"
	"loanshop/internal/pkg/apperrors"
)

type Repository interface {
	Create(ctx context.Context, cust *Customer) error

	Get(ctx context.Context, id string) (*Customer, error)

	Update(ctx context.Context, cust *Customer) error

	Delete(ctx context.Context, id string) error

	// List returns all customers, newest first.
	List(ctx context.Context) ([]*Customer, error)

	// FindByNickname locates a customer by case-insensitive nickname.
	FindByNickname(ctx context.Context, nickname string) (*Customer, error)
}

type storeRepository struct {
	store  docstore.Store
	logger *slog.Logger
}

var _ Repository = (*storeRepository)(nil)

func NewRepository(store docstore.Store, logger *slog.Logger) Repository {
	if store == nil {
		panic("docstore cannot be nil for customer repository")
	}
	return &storeRepository{store: store, logger: logger.With("component", "CustomerRepository")}
}

func (r *storeRepository) Create(ctx context.Context, cust *Customer) error {
	id, err := r.store.Add(ctx, Collection, cust.ToDoc())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to add customer document", slog.Any("error", err))
		return err
	}
	cust.ID = id
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (*Customer, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	return FromDoc(doc), nil
}

func (r *storeRepository) Update(ctx context.Context, cust *Customer) error {
	if cust.ID == "" {
		return fmt.Errorf("%w: customer id is empty", apperrors.ErrInvalidArgument)
	}
	return r.store.Update(ctx, Collection, cust.ID, cust.ToDoc())
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func (r *storeRepository) List(ctx context.Context) ([]*Customer, error) {
	docs, err := r.store.Query(ctx, Collection, nil, docstore.Order{Field: "createdAt", Descending: true})
	if err != nil {
		return nil, err
	}

	customers := make([]*Customer, 0, len(docs))
	for _, doc := range docs {
		customers = append(customers, FromDoc(doc))
	}
	return customers, nil
}

// FindByNickname scans the collection instead of querying by field: the
// store compares case-sensitively, the business key does not.
func (r *storeRepository) FindByNickname(ctx context.Context, nickname string) (*Customer, error) {
	docs, err := r.store.Query(ctx, Collection, nil)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if strings.EqualFold(doc.GetString("nickname"), nickname) {
			return FromDoc(doc), nil
		}
	}
	return nil, fmt.Errorf("%w: customer with nickname %q", apperrors.ErrNotFound, nickname)
}
