package repositories

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MultiTenantRepository restricts a repository to the entities of one tenant.
//
// For entity types implementing Tenant, reads are narrowed by a TenantID filter
// composed with the caller's criteria, and writes of entities that belong to a
// different tenant fail with UnauthorizedError without reaching the wrapped
// repository. For entities implementing Keyed, Update, Remove and Attach also
// read the row stored under the entity's key and refuse to overwrite a row of
// another tenant. GetByID hides cross-tenant rows behind NotFoundError instead of
// failing, so foreign keys look the same as missing ones. Entity types that do
// not implement Tenant pass through unchanged.
type MultiTenantRepository[T any, ID comparable] struct {
	RepositoryAdapter[T, ID]

	policy tenantPolicy[T]
}

// NewMultiTenantRepository binds repo to owner. Whether T is tenant scoped is
// decided here once, and the tenant filter is rewritten for T up front.
func NewMultiTenantRepository[T any, ID comparable](
	repo Repository[T, ID],
	owner Tenant,
) (*MultiTenantRepository[T, ID], error) {
	if isNil(repo) {
		return nil, errors.Wrap(InvalidDataError, "multi-tenant repository: nil repository")
	}
	policy, err := newTenantPolicy[T](owner)
	if err != nil {
		return nil, errors.Wrap(err, "multi-tenant repository")
	}
	return &MultiTenantRepository[T, ID]{
		RepositoryAdapter: NewRepositoryAdapter(repo),
		policy:            policy,
	}, nil
}

// TenantID returns the tenant the repository is bound to.
func (r *MultiTenantRepository[T, ID]) TenantID() int64 {
	return r.policy.owner.TenantID
}

// OwnerID returns the owner the repository is bound to.
func (r *MultiTenantRepository[T, ID]) OwnerID() int64 {
	return r.policy.owner.OwnerID
}

// Scoped reports whether T is tenant scoped.
func (r *MultiTenantRepository[T, ID]) Scoped() bool {
	return r.policy.scoped
}

// Filter returns the predicate added to every read, nil when T is not tenant scoped.
func (r *MultiTenantRepository[T, ID]) Filter() Predicate {
	return r.policy.filter
}

func (r *MultiTenantRepository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	result, err := r.Repository.GetByID(ctx, id)
	if err != nil || !r.policy.scoped {
		return result, err
	}
	owned, err := r.policy.owns(result)
	if err != nil {
		return result, err
	}
	if !owned {
		var zero T
		return zero, NotFoundError
	}
	return result, nil
}

func (r *MultiTenantRepository[T, ID]) Find(ctx context.Context, criteria Predicate) (T, error) {
	if !r.policy.scoped {
		return r.Repository.Find(ctx, criteria)
	}
	return r.Repository.Find(ctx, And(r.policy.filter, criteria))
}

func (r *MultiTenantRepository[T, ID]) FindSpec(ctx context.Context, criteria Specification[T]) (T, error) {
	if !r.policy.scoped {
		return r.Repository.FindSpec(ctx, criteria)
	}
	return r.Repository.FindSpec(ctx, criteria.And(r.policy.filter))
}

func (r *MultiTenantRepository[T, ID]) FindAll(ctx context.Context, criteria Predicate, page Page) ([]T, error) {
	if !r.policy.scoped {
		return r.Repository.FindAll(ctx, criteria, page)
	}
	return r.Repository.FindAll(ctx, And(r.policy.filter, criteria), page)
}

func (r *MultiTenantRepository[T, ID]) FindAllSpec(
	ctx context.Context,
	criteria Specification[T],
	page Page,
) ([]T, error) {
	if !r.policy.scoped {
		return r.Repository.FindAllSpec(ctx, criteria, page)
	}
	return r.Repository.FindAllSpec(ctx, criteria.And(r.policy.filter), page)
}

// Execute cannot inject the filter into an opaque command, so the rows it
// returns are filtered in memory instead.
func (r *MultiTenantRepository[T, ID]) Execute(ctx context.Context, command string, params Params) ([]T, error) {
	rows, err := r.Repository.Execute(ctx, command, params)
	if err != nil || !r.policy.scoped {
		return rows, err
	}
	return Filter(r.policy.filter, rows)
}

func (r *MultiTenantRepository[T, ID]) Add(ctx context.Context, entity T) (T, error) {
	if err := r.policy.authorize("add", entity); err != nil {
		return entity, err
	}
	return r.Repository.Add(ctx, entity)
}

func (r *MultiTenantRepository[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	if err := r.authorizeWrite(ctx, "update", entity); err != nil {
		return entity, err
	}
	return r.Repository.Update(ctx, entity)
}

func (r *MultiTenantRepository[T, ID]) Remove(ctx context.Context, entity T) (T, error) {
	if err := r.authorizeWrite(ctx, "remove", entity); err != nil {
		return entity, err
	}
	return r.Repository.Remove(ctx, entity)
}

// RemoveByID reads the entity first: the key alone says nothing about ownership.
func (r *MultiTenantRepository[T, ID]) RemoveByID(ctx context.Context, id ID) (T, error) {
	if !r.policy.scoped {
		return r.Repository.RemoveByID(ctx, id)
	}
	entity, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return entity, err
	}
	if err := r.policy.authorize("remove", entity); err != nil {
		var zero T
		return zero, err
	}
	return r.Repository.Remove(ctx, entity)
}

func (r *MultiTenantRepository[T, ID]) Count(ctx context.Context) (int64, error) {
	if !r.policy.scoped {
		return r.Repository.Count(ctx)
	}
	return r.Repository.CountWhere(ctx, r.policy.filter)
}

func (r *MultiTenantRepository[T, ID]) CountWhere(ctx context.Context, criteria Predicate) (int64, error) {
	if !r.policy.scoped {
		return r.Repository.CountWhere(ctx, criteria)
	}
	return r.Repository.CountWhere(ctx, And(r.policy.filter, criteria))
}

func (r *MultiTenantRepository[T, ID]) CountSpec(ctx context.Context, criteria Specification[T]) (int64, error) {
	if !r.policy.scoped {
		return r.Repository.CountSpec(ctx, criteria)
	}
	return r.Repository.CountSpec(ctx, criteria.And(r.policy.filter))
}

func (r *MultiTenantRepository[T, ID]) All() Queryable[T] {
	if !r.policy.scoped {
		return r.Repository.All()
	}
	return r.Repository.All().Where(r.policy.filter)
}

func (r *MultiTenantRepository[T, ID]) Attach(ctx context.Context, entity T) error {
	if err := r.authorizeWrite(ctx, "attach", entity); err != nil {
		return err
	}
	return r.Repository.Attach(ctx, entity)
}

func (r *MultiTenantRepository[T, ID]) Detach(ctx context.Context, entity T) error {
	if err := r.policy.authorize("detach", entity); err != nil {
		return err
	}
	return r.Repository.Detach(ctx, entity)
}

// authorizeWrite checks the entity and, when it carries a key, the row stored
// under that key. A key that is not stored yet passes.
func (r *MultiTenantRepository[T, ID]) authorizeWrite(ctx context.Context, operation string, entity T) error {
	if err := r.policy.authorize(operation, entity); err != nil || !r.policy.scoped {
		return err
	}
	key, ok := keyOf[T, ID](entity)
	if !ok {
		return nil
	}
	stored, err := r.Repository.GetByID(ctx, key)
	switch {
	case errors.Is(err, NotFoundError):
		return nil
	case err != nil:
		return err
	}
	return r.policy.authorizeStored(operation, stored)
}

func (r *MultiTenantRepository[T, ID]) Load(ctx context.Context) (LoadService[T], error) {
	svc, err := r.Repository.Load(ctx)
	if err != nil || !r.policy.scoped {
		return svc, err
	}
	return &tenantLoadService[T, ID]{inner: svc, repo: r}, nil
}

// tenantLoadService narrows a load service to the repository's tenant. Direct
// Find and FindAll are not offered; the outer repository's queries apply the filter.
type tenantLoadService[T any, ID comparable] struct {
	inner LoadService[T]
	repo  *MultiTenantRepository[T, ID]

	once     sync.Once
	closeErr error
}

func (s *tenantLoadService[T, ID]) All() Queryable[T] {
	return s.inner.All().Where(s.repo.policy.filter)
}

func (s *tenantLoadService[T, ID]) Include(path string) LoadService[T] {
	next := s.inner.Include(path)
	if next == s.inner {
		return s
	}
	return &tenantLoadService[T, ID]{inner: next, repo: s.repo}
}

func (s *tenantLoadService[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	if err := s.repo.authorizeWrite(ctx, "update", entity); err != nil {
		return entity, err
	}
	return s.inner.Update(ctx, entity)
}

func (s *tenantLoadService[T, ID]) Find(context.Context, Predicate) (T, error) {
	var zero T
	return zero, errors.Wrap(NotImplementedError, "tenant load service: Find")
}

func (s *tenantLoadService[T, ID]) FindAll(context.Context, Predicate, Page) ([]T, error) {
	return nil, errors.Wrap(NotImplementedError, "tenant load service: FindAll")
}

func (s *tenantLoadService[T, ID]) Close() error {
	s.once.Do(func() {
		s.closeErr = s.inner.Close()
	})
	return s.closeErr
}
