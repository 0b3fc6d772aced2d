package repositories

// RepositoryAdapter forwards every operation to the repository it wraps.
// Decorators embed it and override only the operations they intercept.
type RepositoryAdapter[T any, ID comparable] struct {
	Repository[T, ID]
}

// NewRepositoryAdapter wraps repo.
func NewRepositoryAdapter[T any, ID comparable](repo Repository[T, ID]) RepositoryAdapter[T, ID] {
	return RepositoryAdapter[T, ID]{Repository: repo}
}

// Inner returns the wrapped repository.
func (a RepositoryAdapter[T, ID]) Inner() Repository[T, ID] {
	return a.Repository
}
