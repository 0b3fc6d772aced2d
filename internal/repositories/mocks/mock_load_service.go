package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

type MockLoadService[T any] struct {
	mock.Mock
}

func (m *MockLoadService[T]) All() repositories.Queryable[T] {
	args := m.Called()
	return args.Get(0).(repositories.Queryable[T])
}

// Include returns the mock itself unless another service was configured.
func (m *MockLoadService[T]) Include(path string) repositories.LoadService[T] {
	args := m.Called(path)
	if args.Get(0) == nil {
		return m
	}
	return args.Get(0).(repositories.LoadService[T])
}

func (m *MockLoadService[T]) Update(ctx context.Context, entity T) (T, error) {
	args := m.Called(ctx, entity)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockLoadService[T]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	args := m.Called(ctx, criteria)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockLoadService[T]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	args := m.Called(ctx, criteria, page)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockLoadService[T]) Close() error {
	args := m.Called()
	return args.Error(0)
}
