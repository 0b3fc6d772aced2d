package repositories_clover

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/iancoleman/strcase"
	clover "github.com/ostafen/clover/v2"
	clover_d "github.com/ostafen/clover/v2/document"
	clover_q "github.com/ostafen/clover/v2/query"
	"github.com/pkg/errors"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

const (
	createdAtField = "CreatedAt"
	updatedAtField = "UpdatedAt"
)

// GenericRepositoryClover is a generic repository implementation using Clover.
// Documents are keyed by clover's string ids, which are copied into the ID field of T.
type GenericRepositoryClover[T any] struct {
	db         *clover.DB // db is the Clover database instance.
	collection string     // collection is the name of the collection in the database.
}

// NewGenericRepository creates a new instance of GenericRepositoryClover and
// creates the collection of T when it does not exist yet.
func NewGenericRepository[T any](db *clover.DB) (*GenericRepositoryClover[T], error) {
	collection := strcase.ToSnake(reflect.TypeOf(*new(T)).Name())
	exists, err := db.HasCollection(collection)
	if err != nil {
		return nil, handleDBError(err)
	}
	if !exists {
		if err := db.CreateCollection(collection); err != nil {
			return nil, handleDBError(err)
		}
	}
	return &GenericRepositoryClover[T]{db: db, collection: collection}, nil
}

// Collection returns the name of the collection T is stored in.
func (repo *GenericRepositoryClover[T]) Collection() string {
	return repo.collection
}

func (repo *GenericRepositoryClover[T]) query() *clover_q.Query {
	return clover_q.NewQuery(repo.collection)
}

func (repo *GenericRepositoryClover[T]) queryWithID(id string) *clover_q.Query {
	return repo.query().Where(clover_q.Field(pkField).Eq(id))
}

func (repo *GenericRepositoryClover[T]) runner() *queryRunner[T] {
	return &queryRunner[T]{repo: repo}
}

func (repo *GenericRepositoryClover[T]) exists(id string) (bool, error) {
	doc, err := repo.db.FindFirst(repo.queryWithID(id))
	if err != nil {
		return false, handleDBError(err)
	}
	return doc != nil, nil
}

// GetByID retrieves a record by its identifier.
func (repo *GenericRepositoryClover[T]) GetByID(ctx context.Context, id string) (T, error) {
	var result T
	doc, err := repo.db.FindFirst(repo.queryWithID(id))
	if err != nil {
		return result, handleDBError(err)
	}
	if doc == nil {
		return result, repositories.NotFoundError
	}
	return toModel[T](doc)
}

func (repo *GenericRepositoryClover[T]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	return repo.runner().First(ctx, repositories.Query[T]{Where: criteria})
}

func (repo *GenericRepositoryClover[T]) FindSpec(ctx context.Context, criteria repositories.Specification[T]) (T, error) {
	return repo.Find(ctx, criteria.Predicate())
}

func (repo *GenericRepositoryClover[T]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	return repo.All().Where(criteria).Page(page).List(ctx)
}

func (repo *GenericRepositoryClover[T]) FindAllSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
	page repositories.Page,
) ([]T, error) {
	return repo.FindAll(ctx, criteria.Predicate(), page)
}

// Execute is not supported: clover has no command language.
func (repo *GenericRepositoryClover[T]) Execute(context.Context, string, repositories.Params) ([]T, error) {
	return nil, errors.Wrap(repositories.NotImplementedError, "clover repository: Execute")
}

// Add inserts a new document and returns the model with its id.
func (repo *GenericRepositoryClover[T]) Add(ctx context.Context, entity T) (T, error) {
	entity, _ = repositories.UpdateField(entity, createdAtField, time.Now())
	return repo.insert(entity, "")
}

func (repo *GenericRepositoryClover[T]) insert(entity T, id string) (T, error) {
	doc, err := toCloverDoc(entity)
	if err != nil {
		return entity, err
	}
	if id != "" {
		doc.Set(pkField, id)
	}
	id, err = repo.db.InsertOne(repo.collection, doc)
	if err != nil {
		return entity, handleDBError(err)
	}
	return repositories.UpdateField(entity, idField, id)
}

// Update replaces every field of the document with the fields of entity.
func (repo *GenericRepositoryClover[T]) Update(ctx context.Context, entity T) (T, error) {
	id, err := documentID(entity)
	if err != nil {
		return entity, err
	}
	found, err := repo.exists(id)
	if err != nil {
		return entity, err
	}
	if !found {
		return entity, repositories.NotFoundError
	}

	entity, _ = repositories.UpdateField(entity, updatedAtField, time.Now())
	doc, err := toCloverDoc(entity)
	if err != nil {
		return entity, err
	}
	updates := doc.AsMap()
	delete(updates, pkField)
	// the creation time is kept from the stored document
	delete(updates, fieldJSONTag[T](createdAtField))

	if err := repo.db.Update(repo.queryWithID(id), updates); err != nil {
		return entity, handleDBError(err)
	}
	return repo.GetByID(ctx, id)
}

func (repo *GenericRepositoryClover[T]) Remove(ctx context.Context, entity T) (T, error) {
	id, err := documentID(entity)
	if err != nil {
		return entity, err
	}
	found, err := repo.exists(id)
	if err != nil {
		return entity, err
	}
	if !found {
		return entity, repositories.NotFoundError
	}
	return entity, handleDBError(repo.db.Delete(repo.queryWithID(id)))
}

func (repo *GenericRepositoryClover[T]) RemoveByID(ctx context.Context, id string) (T, error) {
	entity, err := repo.GetByID(ctx, id)
	if err != nil {
		return entity, err
	}
	return repo.Remove(ctx, entity)
}

func (repo *GenericRepositoryClover[T]) Count(ctx context.Context) (int64, error) {
	count, err := repo.db.Count(repo.query())
	return int64(count), handleDBError(err)
}

func (repo *GenericRepositoryClover[T]) CountWhere(ctx context.Context, criteria repositories.Predicate) (int64, error) {
	return repo.All().Where(criteria).Count(ctx)
}

func (repo *GenericRepositoryClover[T]) CountSpec(
	ctx context.Context,
	criteria repositories.Specification[T],
) (int64, error) {
	return repo.CountWhere(ctx, criteria.Predicate())
}

func (repo *GenericRepositoryClover[T]) All() repositories.Queryable[T] {
	return repositories.NewQueryable[T](repo.runner())
}

// Attach stores a detached model under its own id, replacing a stored copy.
func (repo *GenericRepositoryClover[T]) Attach(ctx context.Context, entity T) error {
	id, err := documentID(entity)
	if err != nil {
		return err
	}
	found, err := repo.exists(id)
	if err != nil {
		return err
	}
	if found {
		_, err = repo.Update(ctx, entity)
		return err
	}
	_, err = repo.insert(entity, id)
	return err
}

// Detach only validates the model: clover keeps no identity map.
func (repo *GenericRepositoryClover[T]) Detach(ctx context.Context, entity T) error {
	_, err := documentID(entity)
	return err
}

func (repo *GenericRepositoryClover[T]) Load(ctx context.Context) (repositories.LoadService[T], error) {
	return &loadService[T]{repo: repo, closed: new(atomic.Bool)}, nil
}

// queryRunner executes repositories.Query values against a collection.
type queryRunner[T any] struct {
	repo   *GenericRepositoryClover[T]
	closed *atomic.Bool
}

func (r *queryRunner[T]) query(query repositories.Query[T], paged bool) (*clover_q.Query, error) {
	if r.closed != nil && r.closed.Load() {
		return nil, errors.Wrap(repositories.DatabaseError, "load service is closed")
	}
	return applyConditions(r.repo.query(), query, paged)
}

func (r *queryRunner[T]) First(ctx context.Context, query repositories.Query[T]) (T, error) {
	var result T
	q, err := r.query(query, true)
	if err != nil {
		return result, err
	}
	doc, err := r.repo.db.FindFirst(q)
	if err != nil {
		return result, handleDBError(err)
	}
	if doc == nil {
		return result, repositories.NotFoundError
	}
	return toModel[T](doc)
}

func (r *queryRunner[T]) List(ctx context.Context, query repositories.Query[T]) ([]T, error) {
	results := []T{}
	q, err := r.query(query, true)
	if err != nil {
		return nil, err
	}
	var decodeErr error
	err = r.repo.db.ForEach(q, func(doc *clover_d.Document) bool {
		model, err := toModel[T](doc)
		if err != nil {
			decodeErr = err
			return false
		}
		results = append(results, model)
		return true
	})
	if err != nil {
		return nil, handleDBError(err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return results, nil
}

func (r *queryRunner[T]) Count(ctx context.Context, query repositories.Query[T]) (int64, error) {
	q, err := r.query(query, false)
	if err != nil {
		return 0, err
	}
	count, err := r.repo.db.Count(q)
	return int64(count), handleDBError(err)
}

// loadService scopes reads of a clover repository. Documents have no
// relations, so Include is a no-op.
type loadService[T any] struct {
	repo   *GenericRepositoryClover[T]
	closed *atomic.Bool
}

func (s *loadService[T]) runner() *queryRunner[T] {
	return &queryRunner[T]{repo: s.repo, closed: s.closed}
}

func (s *loadService[T]) All() repositories.Queryable[T] {
	return repositories.NewQueryable[T](s.runner())
}

func (s *loadService[T]) Include(string) repositories.LoadService[T] {
	return s
}

func (s *loadService[T]) Update(ctx context.Context, entity T) (T, error) {
	if s.closed.Load() {
		return entity, errors.Wrap(repositories.DatabaseError, "load service is closed")
	}
	return s.repo.Update(ctx, entity)
}

func (s *loadService[T]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	return s.runner().First(ctx, repositories.Query[T]{Where: criteria})
}

func (s *loadService[T]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	return s.All().Where(criteria).Page(page).List(ctx)
}

func (s *loadService[T]) Close() error {
	s.closed.Store(true)
	return nil
}
