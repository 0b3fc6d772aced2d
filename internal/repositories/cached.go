package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedRepository serves GetByID from an in-process cache and drops cached
// entries whenever the entity is written through it. Everything else passes through.
type CachedRepository[T any, ID comparable] struct {
	RepositoryAdapter[T, ID]

	cache *cache.Cache
	keyOf func(T) ID
}

// NewCachedRepository caches entities for ttl. keyOf extracts an entity's key so
// writes can invalidate the right entry.
func NewCachedRepository[T any, ID comparable](
	repo Repository[T, ID],
	ttl time.Duration,
	keyOf func(T) ID,
) *CachedRepository[T, ID] {
	return &CachedRepository[T, ID]{
		RepositoryAdapter: NewRepositoryAdapter(repo),
		cache:             cache.New(ttl, 2*ttl),
		keyOf:             keyOf,
	}
}

func cacheKey[ID comparable](id ID) string {
	return fmt.Sprint(id)
}

func (r *CachedRepository[T, ID]) GetByID(ctx context.Context, id ID) (T, error) {
	if cached, ok := r.cache.Get(cacheKey(id)); ok {
		return cached.(T), nil
	}
	result, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return result, err
	}
	r.cache.SetDefault(cacheKey(id), result)
	return result, nil
}

func (r *CachedRepository[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	r.evict(entity)
	return r.Repository.Update(ctx, entity)
}

func (r *CachedRepository[T, ID]) Remove(ctx context.Context, entity T) (T, error) {
	r.evict(entity)
	return r.Repository.Remove(ctx, entity)
}

func (r *CachedRepository[T, ID]) RemoveByID(ctx context.Context, id ID) (T, error) {
	r.cache.Delete(cacheKey(id))
	return r.Repository.RemoveByID(ctx, id)
}

func (r *CachedRepository[T, ID]) Attach(ctx context.Context, entity T) error {
	r.evict(entity)
	return r.Repository.Attach(ctx, entity)
}

func (r *CachedRepository[T, ID]) Detach(ctx context.Context, entity T) error {
	r.evict(entity)
	return r.Repository.Detach(ctx, entity)
}

// Load bypasses the cache; updates made through the load service evict the entity.
func (r *CachedRepository[T, ID]) Load(ctx context.Context) (LoadService[T], error) {
	svc, err := r.Repository.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &cachedLoadService[T, ID]{LoadService: svc, repo: r}, nil
}

// Flush drops every cached entity.
func (r *CachedRepository[T, ID]) Flush() {
	r.cache.Flush()
}

func (r *CachedRepository[T, ID]) evict(entity T) {
	r.cache.Delete(cacheKey(r.keyOf(entity)))
}

type cachedLoadService[T any, ID comparable] struct {
	LoadService[T]
	repo *CachedRepository[T, ID]
}

func (s *cachedLoadService[T, ID]) Include(path string) LoadService[T] {
	next := s.LoadService.Include(path)
	if next == s.LoadService {
		return s
	}
	return &cachedLoadService[T, ID]{LoadService: next, repo: s.repo}
}

func (s *cachedLoadService[T, ID]) Update(ctx context.Context, entity T) (T, error) {
	s.repo.evict(entity)
	return s.LoadService.Update(ctx, entity)
}
