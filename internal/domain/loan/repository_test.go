package loan

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Create(ctx context.Context, l *Loan) error {
	return _m.Called(ctx, l).Error(0)
}

func (_m *MockRepository) Get(ctx context.Context, id string) (*Loan, error) {
	ret := _m.Called(ctx, id)

	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) Update(ctx context.Context, l *Loan) error {
	return _m.Called(ctx, l).Error(0)
}

func (_m *MockRepository) Delete(ctx context.Context, id string) error {
	return _m.Called(ctx, id).Error(0)
}

func (_m *MockRepository) List(ctx context.Context) ([]*Loan, error) {
	ret := _m.Called(ctx)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListByMonth(ctx context.Context, year, month int) ([]*Loan, error) {
	ret := _m.Called(ctx, year, month)

	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) BulkUpdateStatus(ctx context.Context, ids []string, status Status, at time.Time) error {
	return _m.Called(ctx, ids, status, at).Error(0)
}

func (_m *MockRepository) BulkDelete(ctx context.Context, ids []string) error {
	return _m.Called(ctx, ids).Error(0)
}
