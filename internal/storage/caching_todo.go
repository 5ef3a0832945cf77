package storage

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/cache"
	"github.com/harlequingg/todo-api/internal/data"
)

// CachingTodoRepository caches the per-user listings. Writes drop both
// listings of the owning user.
type CachingTodoRepository struct {
	base         TodoRepository
	cache        *cache.Service
	logger       *zap.Logger
	onInvalidate func(keys ...string)
}

func NewCachingTodoRepository(base TodoRepository, c *cache.Service, logger *zap.Logger, onInvalidate func(keys ...string)) *CachingTodoRepository {
	return &CachingTodoRepository{base: base, cache: c, logger: logger, onInvalidate: onInvalidate}
}

func (r *CachingTodoRepository) FindAll(ctx context.Context, trackChanges bool) ([]*data.Todo, error) {
	return r.base.FindAll(ctx, trackChanges)
}

func (r *CachingTodoRepository) FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.Todo, error) {
	return r.base.FindByID(ctx, id, trackChanges)
}

func (r *CachingTodoRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	return r.base.FindByIDs(ctx, ids, trackChanges)
}

func (r *CachingTodoRepository) FindByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	if trackChanges {
		return r.base.FindByUserID(ctx, userID, true)
	}
	return cache.GetOrCreate(ctx, r.cache, todosKey(userID), func(ctx context.Context) ([]*data.Todo, error) {
		return r.base.FindByUserID(ctx, userID, false)
	}, RepositoryCacheTTL)
}

func (r *CachingTodoRepository) FindCompletedByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	if trackChanges {
		return r.base.FindCompletedByUserID(ctx, userID, true)
	}
	return cache.GetOrCreate(ctx, r.cache, completedKey(userID), func(ctx context.Context) ([]*data.Todo, error) {
		return r.base.FindCompletedByUserID(ctx, userID, false)
	}, RepositoryCacheTTL)
}

func (r *CachingTodoRepository) FindByTag(ctx context.Context, tagID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	return r.base.FindByTag(ctx, tagID, trackChanges)
}

func (r *CachingTodoRepository) FindByDifficulty(ctx context.Context, level int, trackChanges bool) ([]*data.Todo, error) {
	return r.base.FindByDifficulty(ctx, level, trackChanges)
}

func (r *CachingTodoRepository) Create(ctx context.Context, t *data.Todo) {
	r.base.Create(ctx, t)
	r.invalidate(ctx, t)
}

func (r *CachingTodoRepository) Update(ctx context.Context, t *data.Todo) {
	r.base.Update(ctx, t)
	r.invalidate(ctx, t)
}

func (r *CachingTodoRepository) Delete(ctx context.Context, t *data.Todo) {
	r.base.Delete(ctx, t)
	r.invalidate(ctx, t)
}

func (r *CachingTodoRepository) invalidate(ctx context.Context, t *data.Todo) {
	invalidate(ctx, r.cache, r.logger, r.onInvalidate, []string{todosKey(t.UserID), completedKey(t.UserID)})
}
