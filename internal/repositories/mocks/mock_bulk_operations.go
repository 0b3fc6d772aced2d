package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

type MockBulkOperations[T any, ID comparable] struct {
	mock.Mock
}

func (m *MockBulkOperations[T, ID]) GetByIDs(ctx context.Context, ids []ID) ([]T, error) {
	args := m.Called(ctx, ids)
	return value[[]T](args.Get(0)), args.Error(1)
}

func (m *MockBulkOperations[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	args := m.Called(ctx, entities)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBulkOperations[T, ID]) UpdateWhere(
	ctx context.Context,
	criteria repositories.Predicate,
	values map[string]interface{},
) (int64, error) {
	args := m.Called(ctx, criteria, values)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBulkOperations[T, ID]) Delete(ctx context.Context, entities []T) (int64, error) {
	args := m.Called(ctx, entities)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBulkOperations[T, ID]) DeleteByIDs(ctx context.Context, ids []ID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBulkOperations[T, ID]) DeleteWhere(ctx context.Context, criteria ...repositories.Predicate) (int64, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).(int64), args.Error(1)
}
