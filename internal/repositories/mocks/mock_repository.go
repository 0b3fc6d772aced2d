package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

type MockRepository[T any, ID comparable] struct {
	mock.Mock
}

func value[T any](v interface{}) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

func (m *MockRepository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	args := m.Called(ctx, id)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	args := m.Called(ctx, criteria)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) FindSpec(ctx context.Context, criteria repositories.Specification[T]) (T, error) {
	args := m.Called(ctx, criteria)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	args := m.Called(ctx, criteria, page)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) FindAllSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
	page repositories.Page,
) ([]T, error) {
	args := m.Called(ctx, criteria, page)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Execute(ctx context.Context, command string, params repositories.Params) ([]T, error) {
	args := m.Called(ctx, command, params)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Add(ctx context.Context, entity T) (T, error) {
	args := m.Called(ctx, entity)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	args := m.Called(ctx, entity)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Remove(ctx context.Context, entity T) (T, error) {
	args := m.Called(ctx, entity)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) RemoveByID(ctx context.Context, id ID) (T, error) {
	args := m.Called(ctx, id)
	return value[T](args.Get(0)), args.Error(1)
}

func (m *MockRepository[T, ID]) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository[T, ID]) CountWhere(ctx context.Context, criteria repositories.Predicate) (int64, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository[T, ID]) CountSpec(ctx context.Context, criteria repositories.Specification[T]) (int64, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository[T, ID]) All() repositories.Queryable[T] {
	args := m.Called()
	return args.Get(0).(repositories.Queryable[T])
}

func (m *MockRepository[T, ID]) Attach(ctx context.Context, entity T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockRepository[T, ID]) Detach(ctx context.Context, entity T) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockRepository[T, ID]) Load(ctx context.Context) (repositories.LoadService[T], error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repositories.LoadService[T]), args.Error(1)
}
