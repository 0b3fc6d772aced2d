package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

// MockQueryRunner records the queries a Queryable sends to its backend.
type MockQueryRunner[T any] struct {
	mock.Mock
}

func (m *MockQueryRunner[T]) First(ctx context.Context, query repositories.Query[T]) (T, error) {
	args := m.Called(ctx, query)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockQueryRunner[T]) List(ctx context.Context, query repositories.Query[T]) ([]T, error) {
	args := m.Called(ctx, query)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockQueryRunner[T]) Count(ctx context.Context, query repositories.Query[T]) (int64, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(int64), args.Error(1)
}
