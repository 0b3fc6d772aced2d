package repositories_gorm

import (
	"context"

	"gorm.io/gorm"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

const insertBatchSize = 100

// BulkOperationsGORM applies set-based changes to the table of a GenericRepositoryGORM.
type BulkOperationsGORM[T any, ID comparable] struct {
	repo *GenericRepositoryGORM[T, ID]
}

// NewBulkOperations creates bulk operations over the table repo works on.
func NewBulkOperations[T any, ID comparable](repo *GenericRepositoryGORM[T, ID]) *BulkOperationsGORM[T, ID] {
	return &BulkOperationsGORM[T, ID]{repo: repo}
}

func (b *BulkOperationsGORM[T, ID]) GetByIDs(ctx context.Context, ids []ID) ([]T, error) {
	results := []T{}
	if len(ids) == 0 {
		return results, nil
	}
	err := b.repo.db.WithContext(ctx).Where(b.repo.keyColumn()+" IN ?", ids).Find(&results).Error
	return results, handleDBError(err)
}

func (b *BulkOperationsGORM[T, ID]) Insert(ctx context.Context, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	tx := b.repo.db.WithContext(ctx).CreateInBatches(&entities, insertBatchSize)
	return tx.RowsAffected, handleDBError(tx.Error)
}

// UpdateWhere sets values, keyed by field name, on every record matching criteria.
func (b *BulkOperationsGORM[T, ID]) UpdateWhere(
	ctx context.Context,
	criteria repositories.Predicate,
	values map[string]interface{},
) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	columns := make(map[string]interface{}, len(values))
	for field, value := range values {
		column, err := columnName(b.repo.schema, field)
		if err != nil {
			return 0, err
		}
		columns[column] = value
	}

	db, err := b.where(ctx, criteria)
	if err != nil {
		return 0, err
	}
	tx := db.Updates(columns)
	return tx.RowsAffected, handleDBError(tx.Error)
}

func (b *BulkOperationsGORM[T, ID]) Delete(ctx context.Context, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	keys := make([]interface{}, 0, len(entities))
	for _, entity := range entities {
		key, err := b.repo.key(ctx, entity)
		if err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}
	return b.deleteKeys(ctx, keys)
}

func (b *BulkOperationsGORM[T, ID]) DeleteByIDs(ctx context.Context, ids []ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	keys := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id)
	}
	return b.deleteKeys(ctx, keys)
}

// DeleteWhere removes the records matching any of the criteria in one statement.
func (b *BulkOperationsGORM[T, ID]) DeleteWhere(ctx context.Context, criteria ...repositories.Predicate) (int64, error) {
	if len(criteria) == 0 {
		return 0, nil
	}
	db, err := b.where(ctx, repositories.Or(criteria...))
	if err != nil {
		return 0, err
	}
	tx := db.Delete(new(T))
	return tx.RowsAffected, handleDBError(tx.Error)
}

func (b *BulkOperationsGORM[T, ID]) deleteKeys(ctx context.Context, keys []interface{}) (int64, error) {
	tx := b.repo.db.WithContext(ctx).Where(b.repo.keyColumn()+" IN ?", keys).Delete(new(T))
	return tx.RowsAffected, handleDBError(tx.Error)
}

// where scopes a statement to criteria. A nil predicate deliberately targets
// the whole table, which GORM otherwise refuses without a WHERE clause.
func (b *BulkOperationsGORM[T, ID]) where(ctx context.Context, criteria repositories.Predicate) (*gorm.DB, error) {
	db := b.repo.db.WithContext(ctx).Model(new(T))
	if criteria == nil {
		return db.Where(sqlTrue), nil
	}
	return applyConditions(db, b.repo.translator(), repositories.Query[T]{Where: criteria}, false)
}
