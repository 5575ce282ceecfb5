package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"loanshop/internal/pkg/apperrors"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, cust *Customer) (*Customer, error)

	GetCustomer(ctx context.Context, id string) (*Customer, error)

	UpdateCustomer(ctx context.Context, cust *Customer) (*Customer, error)

	DeleteCustomer(ctx context.Context, id string) error

	ListCustomers(ctx context.Context) ([]*Customer, error)

	// SearchCustomers filters by substring over nickname, full name,
	// ID card and telephone.
	SearchCustomers(ctx context.Context, term string) ([]*Customer, error)

	// FindByNickname is the best-effort linkup used by loan import.
	FindByNickname(ctx context.Context, nickname string) (*Customer, error)

	// NicknameSet returns every stored nickname, lowercased, for
	// duplicate detection during import staging.
	NicknameSet(ctx context.Context) (map[string]struct{}, error)

	// ExportRows renders the customer list as CSV header and rows.
	ExportRows(ctx context.Context) ([]string, [][]string, error)
}

type customerServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewCustomerService(repo Repository, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	return &customerServiceImpl{repo: repo, logger: logger.With("component", "CustomerService")}
}

func (s *customerServiceImpl) CreateCustomer(ctx context.Context, cust *Customer) (*Customer, error) {
	cust.Nickname = strings.TrimSpace(cust.Nickname)
	if cust.Nickname == "" {
		return nil, apperrors.NewValidationError("nickname", "cannot be empty")
	}

	// Uniqueness is a pre-write existence query, not a store constraint:
	// two near-simultaneous creations can both pass this check. Known
	// race, accepted for a single-operator back office.
	existing, err := s.repo.FindByNickname(ctx, cust.Nickname)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Nickname pre-check failed", slog.Any("error", err))
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateNickname, cust.Nickname)
	}

	now := time.Now().UTC()
	cust.CreatedAt = now
	cust.UpdatedAt = now

	if err := s.repo.Create(ctx, cust); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Customer created", "customerID", cust.ID, "nickname", cust.Nickname)
	return cust, nil
}

func (s *customerServiceImpl) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: customer id is empty", apperrors.ErrInvalidArgument)
	}
	return s.repo.Get(ctx, id)
}

func (s *customerServiceImpl) UpdateCustomer(ctx context.Context, cust *Customer) (*Customer, error) {
	cust.Nickname = strings.TrimSpace(cust.Nickname)
	if cust.Nickname == "" {
		return nil, apperrors.NewValidationError("nickname", "cannot be empty")
	}

	current, err := s.repo.Get(ctx, cust.ID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(current.Nickname, cust.Nickname) {
		existing, err := s.repo.FindByNickname(ctx, cust.Nickname)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != cust.ID {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrDuplicateNickname, cust.Nickname)
		}
	}

	cust.CreatedAt = current.CreatedAt
	cust.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, cust); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Customer updated", "customerID", cust.ID)
	return cust, nil
}

func (s *customerServiceImpl) DeleteCustomer(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: customer id is empty", apperrors.ErrInvalidArgument)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Customer deleted", "customerID", id)
	return nil
}

func (s *customerServiceImpl) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return s.repo.List(ctx)
}

func (s *customerServiceImpl) SearchCustomers(ctx context.Context, term string) ([]*Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return customers, nil
	}

	var filtered []*Customer
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Nickname), term) ||
			strings.Contains(strings.ToLower(c.NameSurname), term) ||
			strings.Contains(c.IDCard, term) ||
			strings.Contains(c.Telephone, term) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (s *customerServiceImpl) FindByNickname(ctx context.Context, nickname string) (*Customer, error) {
	return s.repo.FindByNickname(ctx, nickname)
}

func (s *customerServiceImpl) NicknameSet(ctx context.Context) (map[string]struct{}, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		set[strings.ToLower(c.Nickname)] = struct{}{}
	}
	return set, nil
}

func (s *customerServiceImpl) ExportRows(ctx context.Context) ([]string, [][]string, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	headers := []string{"No.", "Nickname", "Name - Surname", "ID Card", "Telephone", "Birthday", "Address"}
	rows := make([][]string, 0, len(customers))
	for i, c := range customers {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			c.Nickname,
			c.NameSurname,
			c.MaskedIDCard(),
			c.Telephone,
			c.Birthday,
			c.Address,
		})
	}
	return headers, rows, nil
}
