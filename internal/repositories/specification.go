package repositories

// Specification owns a single predicate over entities of type T. Composition
// always returns a new Specification; the predicate is never evaluated eagerly,
// so a composed specification can still be translated by a backend.
type Specification[T any] struct {
	predicate Predicate
}

// NewSpecification wraps a predicate. A nil predicate is satisfied by every entity.
func NewSpecification[T any](p Predicate) Specification[T] {
	return Specification[T]{predicate: p}
}

// Predicate returns the wrapped predicate.
func (s Specification[T]) Predicate() Predicate {
	return s.predicate
}

// And returns a specification satisfied when both s and p are.
func (s Specification[T]) And(p Predicate) Specification[T] {
	return Specification[T]{predicate: And(s.predicate, p)}
}

// AndSpec conjoins two specifications.
func (s Specification[T]) AndSpec(other Specification[T]) Specification[T] {
	return s.And(other.predicate)
}

// Or returns a specification satisfied when s or p is.
func (s Specification[T]) Or(p Predicate) Specification[T] {
	return Specification[T]{predicate: Or(s.predicate, p)}
}

// Not returns the negation of s.
func (s Specification[T]) Not() Specification[T] {
	return Specification[T]{predicate: Not(s.predicate)}
}

// IsSatisfiedBy evaluates the specification against one entity in memory.
func (s Specification[T]) IsSatisfiedBy(entity T) (bool, error) {
	return Evaluate(s.predicate, entity)
}

func (s Specification[T]) String() string {
	if s.predicate == nil {
		return "TRUE"
	}
	return s.predicate.String()
}
