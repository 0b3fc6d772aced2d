package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/internal/repositories/mocks"
	"gitlab.com/nunet/yarn-data/models"
)

var owner = repositories.Owner{TenantID: 1, OwnerID: 10}

var tenantFilter = repositories.EQ("TenantID", int64(1))

func newOrderRepo(t *testing.T) (*repositories.MultiTenantRepository[models.Order, uint], *mocks.MockRepository[models.Order, uint]) {
	inner := new(mocks.MockRepository[models.Order, uint])
	repo, err := repositories.NewMultiTenantRepository[models.Order, uint](inner, owner)
	require.NoError(t, err)
	return repo, inner
}

// misnamedTenant implements Tenant but keeps the tenant under another field name.
type misnamedTenant struct {
	Tenant int64
}

func (m misnamedTenant) GetTenantID() int64 { return m.Tenant }
func (m misnamedTenant) GetOwnerID() int64  { return 0 }

func TestNewMultiTenantRepository(t *testing.T) {
	inner := new(mocks.MockRepository[models.Order, uint])

	_, err := repositories.NewMultiTenantRepository[models.Order, uint](inner, nil)
	assert.ErrorIs(t, err, repositories.MissingTenantError)

	var missing *repositories.Owner
	_, err = repositories.NewMultiTenantRepository[models.Order, uint](inner, missing)
	assert.ErrorIs(t, err, repositories.MissingTenantError)

	_, err = repositories.NewMultiTenantRepository[models.Order, uint](nil, owner)
	assert.ErrorIs(t, err, repositories.InvalidDataError)

	_, err = repositories.NewMultiTenantRepository[misnamedTenant, uint](
		new(mocks.MockRepository[misnamedTenant, uint]), owner)
	assert.ErrorIs(t, err, repositories.CapabilityError)

	repo, err := repositories.NewMultiTenantRepository[models.Order, uint](inner, owner)
	require.NoError(t, err)
	assert.True(t, repo.Scoped())
	assert.Equal(t, int64(1), repo.TenantID())
	assert.Equal(t, int64(10), repo.OwnerID())
	assert.Equal(t, tenantFilter, repo.Filter())
	assert.Same(t, inner, repo.Inner())
}

func TestMultiTenantReadsAreFiltered(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	shipped := repositories.EQ("Status", "shipped")
	page := repositories.Page{Limit: 5}

	inner.On("Find", ctx, repositories.And(tenantFilter, shipped)).Return(models.Order{ID: 1, TenantID: 1}, nil)
	inner.On("FindAll", ctx, repositories.And(tenantFilter, shipped), page).Return([]models.Order{{ID: 1, TenantID: 1}}, nil)
	inner.On("FindAll", ctx, repositories.Predicate(tenantFilter), repositories.Page{}).Return([]models.Order{}, nil)
	inner.On("CountWhere", ctx, repositories.Predicate(tenantFilter)).Return(int64(2), nil)
	inner.On("CountWhere", ctx, repositories.And(tenantFilter, shipped)).Return(int64(1), nil)

	_, err := repo.Find(ctx, shipped)
	assert.NoError(t, err)

	orders, err := repo.FindAll(ctx, shipped, page)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)

	_, err = repo.FindAll(ctx, nil, repositories.Page{})
	assert.NoError(t, err)

	count, err := repo.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
	inner.AssertNotCalled(t, "Count", mock.Anything)

	count, err = repo.CountWhere(ctx, shipped)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	inner.AssertExpectations(t)
}

func TestMultiTenantSpecificationsAreFiltered(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	spec := repositories.NewSpecification[models.Order](repositories.EQ("Status", "shipped"))
	scoped := spec.And(tenantFilter)

	inner.On("FindSpec", ctx, scoped).Return(models.Order{ID: 1, TenantID: 1}, nil)
	inner.On("FindAllSpec", ctx, scoped, repositories.Page{}).Return([]models.Order{}, nil)
	inner.On("CountSpec", ctx, scoped).Return(int64(0), nil)

	_, err := repo.FindSpec(ctx, spec)
	assert.NoError(t, err)
	_, err = repo.FindAllSpec(ctx, spec, repositories.Page{})
	assert.NoError(t, err)
	_, err = repo.CountSpec(ctx, spec)
	assert.NoError(t, err)

	inner.AssertExpectations(t)
}

func TestMultiTenantGetByIDHidesForeignRows(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)

	inner.On("GetByID", ctx, uint(1)).Return(models.Order{ID: 1, TenantID: 1}, nil)
	inner.On("GetByID", ctx, uint(2)).Return(models.Order{ID: 2, TenantID: 2}, nil)
	inner.On("GetByID", ctx, uint(3)).Return(nil, repositories.NotFoundError)

	order, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), order.ID)

	order, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, repositories.NotFoundError)
	assert.Zero(t, order)

	_, err = repo.GetByID(ctx, 3)
	assert.ErrorIs(t, err, repositories.NotFoundError)
}

func TestMultiTenantExecuteFiltersRows(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)

	inner.On("Execute", ctx, "SELECT * FROM orders", repositories.Params(nil)).
		Return([]models.Order{{ID: 1, TenantID: 1}, {ID: 2, TenantID: 2}, {ID: 3, TenantID: 1}}, nil)

	orders, err := repo.Execute(ctx, "SELECT * FROM orders", nil)
	require.NoError(t, err)
	assert.Equal(t, []models.Order{{ID: 1, TenantID: 1}, {ID: 3, TenantID: 1}}, orders)
}

func TestMultiTenantExecuteLargeTenantIDs(t *testing.T) {
	ctx := context.Background()
	const tenant = int64(1) << 53
	inner := new(mocks.MockRepository[models.Order, uint])
	repo, err := repositories.NewMultiTenantRepository[models.Order, uint](inner, repositories.Owner{TenantID: tenant})
	require.NoError(t, err)

	inner.On("Execute", ctx, "SELECT * FROM orders", repositories.Params(nil)).
		Return([]models.Order{{ID: 1, TenantID: tenant + 1}, {ID: 2, TenantID: tenant}}, nil)

	orders, err := repo.Execute(ctx, "SELECT * FROM orders", nil)
	require.NoError(t, err)
	assert.Equal(t, []models.Order{{ID: 2, TenantID: tenant}}, orders)
}

func TestMultiTenantWrites(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	own := models.Order{ID: 1, TenantID: 1}
	foreign := models.Order{ID: 2, TenantID: 2}

	inner.On("GetByID", ctx, uint(1)).Return(own, nil)
	inner.On("Add", ctx, own).Return(own, nil)
	inner.On("Update", ctx, own).Return(own, nil)
	inner.On("Remove", ctx, own).Return(own, nil)
	inner.On("Attach", ctx, own).Return(nil)
	inner.On("Detach", ctx, own).Return(nil)

	_, err := repo.Add(ctx, own)
	assert.NoError(t, err)
	_, err = repo.Update(ctx, own)
	assert.NoError(t, err)
	_, err = repo.Remove(ctx, own)
	assert.NoError(t, err)
	assert.NoError(t, repo.Attach(ctx, own))
	assert.NoError(t, repo.Detach(ctx, own))

	_, err = repo.Add(ctx, foreign)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	_, err = repo.Update(ctx, foreign)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	_, err = repo.Remove(ctx, foreign)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	assert.ErrorIs(t, repo.Attach(ctx, foreign), repositories.UnauthorizedError)
	assert.ErrorIs(t, repo.Detach(ctx, foreign), repositories.UnauthorizedError)

	for _, method := range []string{"Add", "Update", "Remove", "Attach", "Detach"} {
		inner.AssertNotCalled(t, method, ctx, foreign)
	}
}

func TestMultiTenantWritesCannotReuseForeignKeys(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	// carries tenant 1 but the key of a tenant 2 row
	intruder := models.Order{ID: 2, TenantID: 1, Status: "cancelled"}
	fresh := models.Order{ID: 5, TenantID: 1}

	inner.On("GetByID", ctx, uint(2)).Return(models.Order{ID: 2, TenantID: 2}, nil)
	inner.On("GetByID", ctx, uint(5)).Return(nil, repositories.NotFoundError)
	inner.On("Attach", ctx, fresh).Return(nil)

	_, err := repo.Update(ctx, intruder)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	_, err = repo.Remove(ctx, intruder)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	assert.ErrorIs(t, repo.Attach(ctx, intruder), repositories.UnauthorizedError)
	for _, method := range []string{"Update", "Remove", "Attach"} {
		inner.AssertNotCalled(t, method, ctx, intruder)
	}

	// a key that is not stored yet is free to use
	assert.NoError(t, repo.Attach(ctx, fresh))
}

func TestMultiTenantRejectsForeignAssociations(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	order := models.Order{
		TenantID: 1,
		Lines:    []models.OrderLine{{TenantID: 1}, {TenantID: 3}},
	}

	_, err := repo.Add(ctx, order)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	inner.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestMultiTenantRemoveByID(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	own := models.Order{ID: 1, TenantID: 1}
	foreign := models.Order{ID: 2, TenantID: 2}

	inner.On("GetByID", ctx, uint(1)).Return(own, nil)
	inner.On("GetByID", ctx, uint(2)).Return(foreign, nil)
	inner.On("Remove", ctx, own).Return(own, nil)

	removed, err := repo.RemoveByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, own, removed)

	_, err = repo.RemoveByID(ctx, 2)
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	inner.AssertNotCalled(t, "Remove", ctx, foreign)
	inner.AssertNotCalled(t, "RemoveByID", mock.Anything, mock.Anything)
}

func TestMultiTenantAll(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	runner := new(mocks.MockQueryRunner[models.Order])
	inner.On("All").Return(repositories.NewQueryable[models.Order](runner))

	q := repo.All().Where(repositories.EQ("Status", "shipped")).Take(2)
	want := repositories.Query[models.Order]{
		Where: repositories.And(tenantFilter, repositories.EQ("Status", "shipped")),
		Limit: 2,
	}
	runner.On("List", ctx, want).Return([]models.Order{{ID: 1, TenantID: 1}}, nil)

	orders, err := q.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	runner.AssertExpectations(t)
}

func TestMultiTenantLoadService(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	svc := new(mocks.MockLoadService[models.Order])
	inner.On("Load", ctx).Return(svc, nil)
	svc.On("Include", "Lines").Return(nil)
	svc.On("Close").Return(nil).Once()

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, loaded, loaded.Include("Lines"))

	_, err = loaded.Find(ctx, nil)
	assert.ErrorIs(t, err, repositories.NotImplementedError)
	_, err = loaded.FindAll(ctx, nil, repositories.Page{})
	assert.ErrorIs(t, err, repositories.NotImplementedError)
	svc.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)

	_, err = loaded.Update(ctx, models.Order{ID: 2, TenantID: 2})
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	inner.On("GetByID", ctx, uint(3)).Return(models.Order{ID: 3, TenantID: 2}, nil)
	_, err = loaded.Update(ctx, models.Order{ID: 3, TenantID: 1})
	assert.ErrorIs(t, err, repositories.UnauthorizedError)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	assert.NoError(t, loaded.Close())
	assert.NoError(t, loaded.Close())
	svc.AssertNumberOfCalls(t, "Close", 1)
}

func TestMultiTenantLoadServiceQueries(t *testing.T) {
	ctx := context.Background()
	repo, inner := newOrderRepo(t)
	svc := new(mocks.MockLoadService[models.Order])
	runner := new(mocks.MockQueryRunner[models.Order])
	inner.On("Load", ctx).Return(svc, nil)
	svc.On("All").Return(repositories.NewQueryable[models.Order](runner))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)

	runner.On("First", ctx, repositories.Query[models.Order]{Where: tenantFilter}).Return(models.Order{ID: 1, TenantID: 1}, nil)
	order, err := loaded.All().First(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), order.ID)
}

func TestNonScopedEntitiesPassThrough(t *testing.T) {
	ctx := context.Background()
	inner := new(mocks.MockRepository[models.Product, uint])
	repo, err := repositories.NewMultiTenantRepository[models.Product, uint](inner, owner)
	require.NoError(t, err)
	assert.False(t, repo.Scoped())
	assert.Nil(t, repo.Filter())

	criteria := repositories.EQ("SKU", "W-1")
	product := models.Product{ID: 3, SKU: "W-1"}
	svc := new(mocks.MockLoadService[models.Product])

	inner.On("Find", ctx, repositories.Predicate(criteria)).Return(product, nil)
	inner.On("Count", ctx).Return(int64(4), nil)
	inner.On("Add", ctx, product).Return(product, nil)
	inner.On("RemoveByID", ctx, uint(3)).Return(product, nil)
	inner.On("Load", ctx).Return(svc, nil)

	_, err = repo.Find(ctx, criteria)
	assert.NoError(t, err)
	count, err := repo.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	_, err = repo.Add(ctx, product)
	assert.NoError(t, err)
	_, err = repo.RemoveByID(ctx, 3)
	assert.NoError(t, err)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, svc, loaded)

	inner.AssertExpectations(t)
}
