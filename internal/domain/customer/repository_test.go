package customer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Create(ctx context.Context, cust *Customer) error {
	return _m.Called(ctx, cust).Error(0)
}

func (_m *MockRepository) Get(ctx context.Context, id string) (*Customer, error) {
	ret := _m.Called(ctx, id)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) Update(ctx context.Context, cust *Customer) error {
	return _m.Called(ctx, cust).Error(0)
}

func (_m *MockRepository) Delete(ctx context.Context, id string) error {
	return _m.Called(ctx, id).Error(0)
}

func (_m *MockRepository) List(ctx context.Context) ([]*Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByNickname(ctx context.Context, nickname string) (*Customer, error) {
	ret := _m.Called(ctx, nickname)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}
