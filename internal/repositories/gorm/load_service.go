package repositories_gorm

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gitlab.com/nunet/yarn-data/internal/repositories"
)

// loadService eager-loads the associations named by Include with GORM's
// Preload. Services derived by Include share the closed state of their origin.
type loadService[T any, ID comparable] struct {
	repo     *GenericRepositoryGORM[T, ID]
	db       *gorm.DB
	preloads []string
	closed   *atomic.Bool
}

func (s *loadService[T, ID]) runner() *queryRunner[T] {
	return &queryRunner[T]{db: s.db, tr: s.repo.translator(), preloads: s.preloads, closed: s.closed}
}

func (s *loadService[T, ID]) All() repositories.Queryable[T] {
	return repositories.NewQueryable[T](s.runner())
}

// Include adds an association path such as "Lines" or "Lines.Product".
func (s *loadService[T, ID]) Include(path string) repositories.LoadService[T] {
	preloads := make([]string, len(s.preloads), len(s.preloads)+1)
	copy(preloads, s.preloads)
	return &loadService[T, ID]{
		repo:     s.repo,
		db:       s.db,
		preloads: append(preloads, path),
		closed:   s.closed,
	}
}

// Update saves the entity together with its loaded associations.
func (s *loadService[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	if s.closed.Load() {
		return entity, errors.Wrap(repositories.DatabaseError, "load service is closed")
	}
	if _, err := s.repo.key(ctx, entity); err != nil {
		return entity, err
	}
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(&entity).Error
	return entity, handleDBError(err)
}

func (s *loadService[T, ID]) Find(ctx context.Context, criteria repositories.Predicate) (T, error) {
	return s.runner().First(ctx, repositories.Query[T]{Where: criteria})
}

func (s *loadService[T, ID]) FindAll(
	ctx context.Context,
	criteria repositories.Predicate,
	page repositories.Page,
) ([]T, error) {
	return s.All().Where(criteria).Page(page).List(ctx)
}

// Close ends the scope. Later calls through the service fail.
func (s *loadService[T, ID]) Close() error {
	s.closed.Store(true)
	return nil
}
