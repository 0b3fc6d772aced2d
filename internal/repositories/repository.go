package repositories

import (
	"context"
)

// Params carries named parameters of a raw command.
type Params map[string]interface{}

// Repository is an interface defining CRUD operations and standard querying
// methods for entities of type T identified by keys of type ID.
type Repository[T any, ID comparable] interface {
	// GetByID retrieves a record by its identifier.
	GetByID(ctx context.Context, id ID) (T, error)
	// Find retrieves the first record matching the predicate.
	Find(ctx context.Context, criteria Predicate) (T, error)
	// FindSpec retrieves the first record satisfying the specification.
	FindSpec(ctx context.Context, criteria Specification[T]) (T, error)
	// FindAll retrieves the records matching the predicate within the page.
	FindAll(ctx context.Context, criteria Predicate, page Page) ([]T, error)
	// FindAllSpec retrieves the records satisfying the specification within the page.
	FindAllSpec(ctx context.Context, criteria Specification[T], page Page) ([]T, error)
	// Execute runs a backend specific command and maps its rows to T.
	Execute(ctx context.Context, command string, params Params) ([]T, error)
	// Add inserts a new record and returns it as stored.
	Add(ctx context.Context, entity T) (T, error)
	// Update persists changes to an existing record.
	Update(ctx context.Context, entity T) (T, error)
	// Remove deletes the record and returns it.
	Remove(ctx context.Context, entity T) (T, error)
	// RemoveByID deletes the record with the given key and returns it.
	RemoveByID(ctx context.Context, id ID) (T, error)
	// Count counts every record.
	Count(ctx context.Context) (int64, error)
	// CountWhere counts the records matching the predicate.
	CountWhere(ctx context.Context, criteria Predicate) (int64, error)
	// CountSpec counts the records satisfying the specification.
	CountSpec(ctx context.Context, criteria Specification[T]) (int64, error)
	// All returns a lazy query over every record.
	All() Queryable[T]
	// Attach associates a detached entity with the repository.
	Attach(ctx context.Context, entity T) error
	// Detach stops tracking an entity.
	Detach(ctx context.Context, entity T) error
	// Load opens a scoped load service. Callers must Close it.
	Load(ctx context.Context) (LoadService[T], error)
}

// LoadService is a scoped handle over one entity type that composes eager-load
// paths. It must be closed on every path, including errors.
type LoadService[T any] interface {
	// All returns a lazy query with the configured includes.
	All() Queryable[T]
	// Include adds an eager-load path such as "Lines" or "Lines.Product".
	Include(path string) LoadService[T]
	// Update persists the entity within the scope.
	Update(ctx context.Context, entity T) (T, error)
	// Find retrieves the first record matching the predicate with includes loaded.
	Find(ctx context.Context, criteria Predicate) (T, error)
	// FindAll retrieves the matching records with includes loaded.
	FindAll(ctx context.Context, criteria Predicate, page Page) ([]T, error)
	// Close releases the scope.
	Close() error
}
