package repositories

import (
	"context"
)

// SortField orders results by one field.
type SortField struct {
	Field      string
	Descending bool
}

// Sorting is an ordered list of sort fields, most significant first.
type Sorting []SortField

// OrderBy starts an ascending sort on field.
func OrderBy(field string) Sorting {
	return Sorting{{Field: field}}
}

// OrderByDescending starts a descending sort on field.
func OrderByDescending(field string) Sorting {
	return Sorting{{Field: field, Descending: true}}
}

// ThenBy appends an ascending tie-breaker.
func (s Sorting) ThenBy(field string) Sorting {
	return s.then(SortField{Field: field})
}

// ThenByDescending appends a descending tie-breaker.
func (s Sorting) ThenByDescending(field string) Sorting {
	return s.then(SortField{Field: field, Descending: true})
}

func (s Sorting) then(f SortField) Sorting {
	out := make(Sorting, len(s), len(s)+1)
	copy(out, s)
	return append(out, f)
}

// Page selects a window of an ordered result. The zero value selects everything.
type Page struct {
	Offset  int
	Limit   int
	OrderBy Sorting
}

// Query is a struct that carries the predicate and paging of a single query.
// It is the unit a backend translates and executes.
type Query[T any] struct {
	Where   Predicate // Where restricts the result; nil matches every record.
	OrderBy Sorting   // OrderBy specifies the fields by which the query results should be sorted.
	Limit   int       // Limit specifies the maximum number of results to return.
	Offset  int       // Offset specifies the number of results to skip before starting to return data.
}

// WithPage applies a page to the query.
func (q Query[T]) WithPage(page Page) Query[T] {
	q.Offset = page.Offset
	q.Limit = page.Limit
	q.OrderBy = page.OrderBy
	return q
}

// QueryRunner executes queries against a backend.
type QueryRunner[T any] interface {
	// First returns the first matching record or NotFoundError.
	First(ctx context.Context, query Query[T]) (T, error)
	// List returns every matching record within the query window.
	List(ctx context.Context, query Query[T]) ([]T, error)
	// Count counts matching records, ignoring the query window.
	Count(ctx context.Context, query Query[T]) (int64, error)
}

// Queryable is a lazily executed, immutable query. Every builder method returns
// a new Queryable; nothing reaches the backend until List, First or Count.
// Filters always apply before the Skip/Take window.
type Queryable[T any] struct {
	runner QueryRunner[T]
	query  Query[T]
}

// NewQueryable returns a query over every record the runner can reach.
func NewQueryable[T any](runner QueryRunner[T]) Queryable[T] {
	return Queryable[T]{runner: runner}
}

// Where restricts the query further.
func (q Queryable[T]) Where(p Predicate) Queryable[T] {
	q.query.Where = And(q.query.Where, p)
	return q
}

// OrderBy replaces the ordering.
func (q Queryable[T]) OrderBy(s Sorting) Queryable[T] {
	q.query.OrderBy = s
	return q
}

// Skip drops the first n results.
func (q Queryable[T]) Skip(n int) Queryable[T] {
	q.query.Offset += n
	if q.query.Limit > 0 {
		q.query.Limit -= n
		if q.query.Limit <= 0 {
			q.query.Limit = -1
		}
	}
	return q
}

// Take keeps at most n results.
func (q Queryable[T]) Take(n int) Queryable[T] {
	if q.query.Limit == 0 || n < q.query.Limit {
		q.query.Limit = n
	}
	return q
}

// Page applies offset, limit and ordering in one step.
func (q Queryable[T]) Page(page Page) Queryable[T] {
	if len(page.OrderBy) > 0 {
		q = q.OrderBy(page.OrderBy)
	}
	if page.Offset > 0 {
		q = q.Skip(page.Offset)
	}
	if page.Limit > 0 {
		q = q.Take(page.Limit)
	}
	return q
}

// Query returns the query built so far.
func (q Queryable[T]) Query() Query[T] {
	return q.query
}

// List executes the query.
func (q Queryable[T]) List(ctx context.Context) ([]T, error) {
	if q.query.Limit < 0 {
		return []T{}, nil
	}
	return q.runner.List(ctx, q.query)
}

// First returns the first result or NotFoundError.
func (q Queryable[T]) First(ctx context.Context) (T, error) {
	if q.query.Limit < 0 {
		var zero T
		return zero, NotFoundError
	}
	return q.runner.First(ctx, q.query)
}

// Count counts the records matching the filters.
func (q Queryable[T]) Count(ctx context.Context) (int64, error) {
	return q.runner.Count(ctx, q.query)
}
