package repositories

import (
	"context"

	"github.com/pkg/errors"
)

// MultiTenantBulkOperations applies the tenant policy of MultiTenantRepository to
// bulk operations. A batch containing a single foreign entity fails as a whole.
type MultiTenantBulkOperations[T any, ID comparable] struct {
	inner  BulkOperations[T, ID]
	policy tenantPolicy[T]
}

// NewMultiTenantBulkOperations binds bulk to owner.
func NewMultiTenantBulkOperations[T any, ID comparable](
	bulk BulkOperations[T, ID],
	owner Tenant,
) (*MultiTenantBulkOperations[T, ID], error) {
	if isNil(bulk) {
		return nil, errors.Wrap(InvalidDataError, "multi-tenant bulk operations: nil provider")
	}
	policy, err := newTenantPolicy[T](owner)
	if err != nil {
		return nil, errors.Wrap(err, "multi-tenant bulk operations")
	}
	return &MultiTenantBulkOperations[T, ID]{inner: bulk, policy: policy}, nil
}

func (b *MultiTenantBulkOperations[T, ID]) GetByIDs(ctx context.Context, ids []ID) ([]T, error) {
	rows, err := b.inner.GetByIDs(ctx, ids)
	if err != nil || !b.policy.scoped {
		return rows, err
	}
	return Filter(b.policy.filter, rows)
}

func (b *MultiTenantBulkOperations[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	if err := b.authorizeAll("insert", entities); err != nil {
		return 0, err
	}
	return b.inner.Insert(ctx, entities)
}

// UpdateWhere narrows criteria to the tenant and refuses to move records to another tenant.
func (b *MultiTenantBulkOperations[T, ID]) UpdateWhere(
	ctx context.Context,
	criteria Predicate,
	values map[string]interface{},
) (int64, error) {
	if !b.policy.scoped {
		return b.inner.UpdateWhere(ctx, criteria, values)
	}
	if tenantID, ok := values["TenantID"]; ok && !equalValues(tenantID, b.policy.owner.TenantID) {
		return 0, errors.Wrapf(UnauthorizedError, "bulk update: cannot move records to tenant %v", tenantID)
	}
	return b.inner.UpdateWhere(ctx, And(b.policy.filter, criteria), values)
}

// Delete also refuses entities whose keys address rows of another tenant.
func (b *MultiTenantBulkOperations[T, ID]) Delete(ctx context.Context, entities []T) (int64, error) {
	if err := b.authorizeAll("delete", entities); err != nil {
		return 0, err
	}
	if err := b.authorizeStored(ctx, "delete", entities); err != nil {
		return 0, err
	}
	return b.inner.Delete(ctx, entities)
}

// DeleteByIDs loads the records first and fails if any belongs to another tenant.
func (b *MultiTenantBulkOperations[T, ID]) DeleteByIDs(ctx context.Context, ids []ID) (int64, error) {
	if !b.policy.scoped {
		return b.inner.DeleteByIDs(ctx, ids)
	}
	rows, err := b.inner.GetByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := b.authorizeAll("delete", rows); err != nil {
		return 0, err
	}
	return b.inner.Delete(ctx, rows)
}

func (b *MultiTenantBulkOperations[T, ID]) DeleteWhere(ctx context.Context, criteria ...Predicate) (int64, error) {
	if !b.policy.scoped {
		return b.inner.DeleteWhere(ctx, criteria...)
	}
	scoped := make([]Predicate, len(criteria))
	for i, c := range criteria {
		scoped[i] = And(b.policy.filter, c)
	}
	return b.inner.DeleteWhere(ctx, scoped...)
}

func (b *MultiTenantBulkOperations[T, ID]) authorizeAll(operation string, entities []T) error {
	for _, entity := range entities {
		if err := b.policy.authorize(operation, entity); err != nil {
			return err
		}
	}
	return nil
}

func (b *MultiTenantBulkOperations[T, ID]) authorizeStored(ctx context.Context, operation string, entities []T) error {
	if !b.policy.scoped {
		return nil
	}
	keys := make([]ID, 0, len(entities))
	for _, entity := range entities {
		if key, ok := keyOf[T, ID](entity); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	stored, err := b.inner.GetByIDs(ctx, keys)
	if err != nil {
		return err
	}
	for _, row := range stored {
		if err := b.policy.authorizeStored(operation, row); err != nil {
			return err
		}
	}
	return nil
}
