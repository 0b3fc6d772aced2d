package repositories

import (
	"context"
)

// BulkOperations applies set-based changes without loading entities one by one.
// Every method returns the number of affected records.
type BulkOperations[T any, ID comparable] interface {
	// GetByIDs retrieves the records with the given keys; missing keys are skipped.
	GetByIDs(ctx context.Context, ids []ID) ([]T, error)
	// Insert adds every entity.
	Insert(ctx context.Context, entities []T) (int64, error)
	// UpdateWhere sets values (field name to new value) on every record matching criteria.
	UpdateWhere(ctx context.Context, criteria Predicate, values map[string]interface{}) (int64, error)
	// Delete removes the given entities.
	Delete(ctx context.Context, entities []T) (int64, error)
	// DeleteByIDs removes the records with the given keys.
	DeleteByIDs(ctx context.Context, ids []ID) (int64, error)
	// DeleteWhere removes the records matching any of the criteria.
	DeleteWhere(ctx context.Context, criteria ...Predicate) (int64, error)
}
