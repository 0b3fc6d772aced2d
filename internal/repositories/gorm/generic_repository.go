package repositories_gorm

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

const createdAtField = "CreatedAt"

// GenericRepositoryGORM is a generic repository implementation using GORM as an ORM.
// Predicates are translated into SQL against the columns of T's parsed schema.
type GenericRepositoryGORM[T any, ID comparable] struct {
	db     *gorm.DB       // db is the GORM database instance.
	schema *schema.Schema // schema is the parsed schema of T.
	pk     *schema.Field  // pk is the primary key field of T.
}

// NewGenericRepository creates a new instance of GenericRepositoryGORM.
// It fails when T cannot be parsed as a GORM model or has no primary key.
func NewGenericRepository[T any, ID comparable](db *gorm.DB) (*GenericRepositoryGORM[T, ID], error) {
	s, err := parseSchema[T](db)
	if err != nil {
		return nil, err
	}
	pk, err := primaryKey(s)
	if err != nil {
		return nil, err
	}
	return &GenericRepositoryGORM[T, ID]{db: db, schema: s, pk: pk}, nil
}

func (repo *GenericRepositoryGORM[T, ID]) translator() translator {
	return translator{db: repo.db, schema: repo.schema}
}

func (repo *GenericRepositoryGORM[T, ID]) runner(db *gorm.DB) *queryRunner[T] {
	return &queryRunner[T]{db: db, tr: repo.translator()}
}

func (repo *GenericRepositoryGORM[T, ID]) keyColumn() string {
	return repo.db.Statement.Quote(repo.pk.DBName)
}

// key returns the primary key of entity, or InvalidDataError when it is unset.
func (repo *GenericRepositoryGORM[T, ID]) key(ctx context.Context, entity T) (interface{}, error) {
	value, zero := repo.pk.ValueOf(ctx, reflect.ValueOf(&entity).Elem())
	if zero {
		return nil, errors.Wrapf(repositories.InvalidDataError, "%s has no primary key value", repo.schema.Name)
	}
	return value, nil
}

// GetByID retrieves a record by its identifier.
func (repo *GenericRepositoryGORM[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	var result T
	err := repo.db.WithContext(ctx).Where(repo.keyColumn()+" = ?", id).First(&result).Error
	return result, handleDBError(err)
}

// Find retrieves the first record matching criteria.
func (repo *GenericRepositoryGORM[T, ID]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	return repo.runner(repo.db).First(ctx, repositories.Query[T]{Where: criteria})
}

func (repo *GenericRepositoryGORM[T, ID]) FindSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
) (T, error) {
	return repo.Find(ctx, criteria.Predicate())
}

// FindAll retrieves the records matching criteria within page.
func (repo *GenericRepositoryGORM[T, ID]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	return repo.All().Where(criteria).Page(page).List(ctx)
}

func (repo *GenericRepositoryGORM[T, ID]) FindAllSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
	page repositories.Page,
) ([]T, error) {
	return repo.FindAll(ctx, criteria.Predicate(), page)
}

// Execute runs a raw SQL command. Named parameters are referenced as @name.
func (repo *GenericRepositoryGORM[T, ID]) Execute(
	ctx context.Context,
	command string,
	params repositories.Params,
) ([]T, error) {
	results := []T{}
	db := repo.db.WithContext(ctx)
	if len(params) > 0 {
		db = db.Raw(command, map[string]interface{}(params))
	} else {
		db = db.Raw(command)
	}
	err := db.Scan(&results).Error
	return results, handleDBError(err)
}

// Add inserts a new record together with its associations.
func (repo *GenericRepositoryGORM[T, ID]) Add(ctx context.Context, entity T) (T, error) {
	err := repo.db.WithContext(ctx).Create(&entity).Error
	return entity, handleDBError(err)
}

// Update writes every column of the record except its creation time.
// Associations are left untouched; load services save them.
func (repo *GenericRepositoryGORM[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	if _, err := repo.key(ctx, entity); err != nil {
		return entity, err
	}
	tx := repo.db.WithContext(ctx).
		Model(&entity).
		Select("*").
		Omit(clause.Associations, createdAtField).
		Updates(&entity)
	if tx.Error != nil {
		return entity, handleDBError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return entity, repositories.NotFoundError
	}
	return entity, nil
}

// Remove deletes the record and its has-one and has-many associations.
func (repo *GenericRepositoryGORM[T, ID]) Remove(ctx context.Context, entity T) (T, error) {
	if _, err := repo.key(ctx, entity); err != nil {
		return entity, err
	}
	tx := repo.db.WithContext(ctx).Select(clause.Associations).Delete(&entity)
	if tx.Error != nil {
		return entity, handleDBError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return entity, repositories.NotFoundError
	}
	return entity, nil
}

func (repo *GenericRepositoryGORM[T, ID]) RemoveByID(ctx context.Context, id ID) (T, error) {
	entity, err := repo.GetByID(ctx, id)
	if err != nil {
		return entity, err
	}
	return repo.Remove(ctx, entity)
}

func (repo *GenericRepositoryGORM[T, ID]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, handleDBError(err)
}

func (repo *GenericRepositoryGORM[T, ID]) CountWhere(ctx context.Context, criteria repositories.Predicate) (int64, error) {
	return repo.All().Where(criteria).Count(ctx)
}

func (repo *GenericRepositoryGORM[T, ID]) CountSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
) (int64, error) {
	return repo.CountWhere(ctx, criteria.Predicate())
}

// All returns a lazy query over the table of T.
func (repo *GenericRepositoryGORM[T, ID]) All() repositories.Queryable[T] {
	return repositories.NewQueryable[T](repo.runner(repo.db))
}

// Attach saves a detached entity, inserting it when it has no primary key yet.
func (repo *GenericRepositoryGORM[T, ID]) Attach(ctx context.Context, entity T) error {
	return handleDBError(repo.db.WithContext(ctx).Save(&entity).Error)
}

// Detach only validates the entity: GORM keeps no identity map to remove it from.
func (repo *GenericRepositoryGORM[T, ID]) Detach(ctx context.Context, entity T) error {
	_, err := repo.key(ctx, entity)
	return err
}

// Load opens a load service bound to ctx.
func (repo *GenericRepositoryGORM[T, ID]) Load(ctx context.Context) (repositories.LoadService[T], error) {
	if ctx == nil {
		return nil, errors.Wrap(repositories.InvalidDataError, "load service: nil context")
	}
	return &loadService[T, ID]{
		repo:   repo,
		db:     repo.db.WithContext(ctx),
		closed: new(atomic.Bool),
	}, nil
}

// queryRunner executes repositories.Query values with GORM.
type queryRunner[T any] struct {
	db       *gorm.DB
	tr       translator
	preloads []string
	closed   *atomic.Bool
}

func (r *queryRunner[T]) session(ctx context.Context) (*gorm.DB, error) {
	if r.closed != nil && r.closed.Load() {
		return nil, errors.Wrap(repositories.DatabaseError, "load service is closed")
	}
	return r.db.WithContext(ctx).Model(new(T)), nil
}

func (r *queryRunner[T]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, path := range r.preloads {
		db = db.Preload(path)
	}
	return db
}

func (r *queryRunner[T]) First(ctx context.Context, query repositories.Query[T]) (T, error) {
	var result T
	db, err := r.session(ctx)
	if err != nil {
		return result, err
	}
	db, err = applyConditions(db, r.tr, query, true)
	if err != nil {
		return result, err
	}
	err = r.withPreloads(db).First(&result).Error
	return result, handleDBError(err)
}

func (r *queryRunner[T]) List(ctx context.Context, query repositories.Query[T]) ([]T, error) {
	results := []T{}
	db, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	db, err = applyConditions(db, r.tr, query, true)
	if err != nil {
		return nil, err
	}
	err = r.withPreloads(db).Find(&results).Error
	return results, handleDBError(err)
}

func (r *queryRunner[T]) Count(ctx context.Context, query repositories.Query[T]) (int64, error) {
	var count int64
	db, err := r.session(ctx)
	if err != nil {
		return 0, err
	}
	db, err = applyConditions(db, r.tr, query, false)
	if err != nil {
		return 0, err
	}
	err = db.Count(&count).Error
	return count, handleDBError(err)
}
