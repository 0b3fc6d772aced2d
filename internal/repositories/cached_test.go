package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/internal/repositories/mocks"
	"gitlab.com/nunet/yarn-data/models"
)

func newCachedOrders() (*repositories.CachedRepository[models.Order, uint], *mocks.MockRepository[models.Order, uint]) {
	inner := new(mocks.MockRepository[models.Order, uint])
	return repositories.NewCachedRepository[models.Order, uint](inner, time.Minute, models.Order.Key), inner
}

func TestCachedGetByID(t *testing.T) {
	ctx := context.Background()
	repo, inner := newCachedOrders()
	order := models.Order{ID: 1, TenantID: 1, Status: "pending"}
	inner.On("GetByID", ctx, uint(1)).Return(order, nil)
	inner.On("GetByID", ctx, uint(2)).Return(nil, repositories.NotFoundError)

	for i := 0; i < 3; i++ {
		got, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, order, got)
	}
	inner.AssertNumberOfCalls(t, "GetByID", 1)

	// misses are not cached
	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, 2)
		assert.ErrorIs(t, err, repositories.NotFoundError)
	}
	inner.AssertNumberOfCalls(t, "GetByID", 3)
}

func TestCachedWritesEvict(t *testing.T) {
	ctx := context.Background()
	repo, inner := newCachedOrders()
	order := models.Order{ID: 1, TenantID: 1, Status: "pending"}
	shipped := models.Order{ID: 1, TenantID: 1, Status: "shipped"}

	inner.On("GetByID", ctx, uint(1)).Return(order, nil).Once()
	inner.On("Update", ctx, shipped).Return(shipped, nil)
	inner.On("GetByID", ctx, uint(1)).Return(shipped, nil).Once()
	inner.On("RemoveByID", ctx, uint(1)).Return(shipped, nil)
	inner.On("GetByID", ctx, uint(1)).Return(nil, repositories.NotFoundError).Once()

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)

	_, err = repo.Update(ctx, shipped)
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "shipped", got.Status)

	_, err = repo.RemoveByID(ctx, 1)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, repositories.NotFoundError)
	inner.AssertExpectations(t)
}

func TestCachedLoadServiceEvicts(t *testing.T) {
	ctx := context.Background()
	repo, inner := newCachedOrders()
	svc := new(mocks.MockLoadService[models.Order])
	order := models.Order{ID: 1, TenantID: 1}

	inner.On("Load", ctx).Return(svc, nil)
	inner.On("GetByID", ctx, uint(1)).Return(order, nil)
	svc.On("Include", "Lines").Return(nil)
	svc.On("Update", ctx, order).Return(order, nil)

	_, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, loaded, loaded.Include("Lines"))

	_, err = loaded.Update(ctx, order)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	inner.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestCachedFlush(t *testing.T) {
	ctx := context.Background()
	repo, inner := newCachedOrders()
	inner.On("GetByID", ctx, uint(1)).Return(models.Order{ID: 1}, nil)

	_, _ = repo.GetByID(ctx, 1)
	repo.Flush()
	_, _ = repo.GetByID(ctx, 1)
	inner.AssertNumberOfCalls(t, "GetByID", 2)
}
