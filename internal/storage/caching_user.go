package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/cache"
	"github.com/harlequingg/todo-api/internal/data"
)

// RepositoryCacheTTL is how long repository lookups stay cached.
const RepositoryCacheTTL = 3 * time.Minute

func userIDKey(id uuid.UUID) string        { return id.String() + "-user" }
func usernameKey(username string) string   { return username + "-user" }
func userEmailKey(email string) string     { return email + "-user" }
func todosKey(userID uuid.UUID) string     { return userID.String() + "-todos" }
func completedKey(userID uuid.UUID) string { return userID.String() + "-completed" }

func userKeys(u *data.User) []string {
	return []string{userIDKey(u.ID), usernameKey(u.Username), userEmailKey(u.Email)}
}

// CachingUserRepository serves detached single-user lookups from the cache and
// drops every key derived from a user it writes. Tracked reads always hit the
// base repository so Save sees the loaded instance.
type CachingUserRepository struct {
	base         UserRepository
	cache        *cache.Service
	logger       *zap.Logger
	onInvalidate func(keys ...string)
}

// NewCachingUserRepository wraps base. onInvalidate, if set, is told about
// every key removed.
func NewCachingUserRepository(base UserRepository, c *cache.Service, logger *zap.Logger, onInvalidate func(keys ...string)) *CachingUserRepository {
	return &CachingUserRepository{base: base, cache: c, logger: logger, onInvalidate: onInvalidate}
}

func (r *CachingUserRepository) FindAll(ctx context.Context, trackChanges bool) ([]*data.User, error) {
	return r.base.FindAll(ctx, trackChanges)
}

func (r *CachingUserRepository) FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.User, error) {
	if trackChanges {
		return r.base.FindByID(ctx, id, true)
	}
	return cache.GetOrCreate(ctx, r.cache, userIDKey(id), func(ctx context.Context) (*data.User, error) {
		return r.base.FindByID(ctx, id, false)
	}, RepositoryCacheTTL)
}

func (r *CachingUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.User, error) {
	return r.base.FindByIDs(ctx, ids, trackChanges)
}

func (r *CachingUserRepository) FindByUsername(ctx context.Context, username string, trackChanges bool) (*data.User, error) {
	if trackChanges {
		return r.base.FindByUsername(ctx, username, true)
	}
	return cache.GetOrCreate(ctx, r.cache, usernameKey(username), func(ctx context.Context) (*data.User, error) {
		return r.base.FindByUsername(ctx, username, false)
	}, RepositoryCacheTTL)
}

func (r *CachingUserRepository) FindByEmail(ctx context.Context, email string, trackChanges bool) (*data.User, error) {
	if trackChanges {
		return r.base.FindByEmail(ctx, email, true)
	}
	return cache.GetOrCreate(ctx, r.cache, userEmailKey(email), func(ctx context.Context) (*data.User, error) {
		return r.base.FindByEmail(ctx, email, false)
	}, RepositoryCacheTTL)
}

func (r *CachingUserRepository) Create(ctx context.Context, u *data.User) {
	r.base.Create(ctx, u)
	r.invalidate(ctx, userKeys(u)...)
}

func (r *CachingUserRepository) Update(ctx context.Context, u *data.User) {
	r.base.Update(ctx, u)
	r.invalidate(ctx, userKeys(u)...)
}

func (r *CachingUserRepository) Delete(ctx context.Context, u *data.User) {
	r.base.Delete(ctx, u)
	r.invalidate(ctx, append(userKeys(u), todosKey(u.ID), completedKey(u.ID))...)
}

func (r *CachingUserRepository) invalidate(ctx context.Context, keys ...string) {
	invalidate(ctx, r.cache, r.logger, r.onInvalidate, keys)
}

func invalidate(ctx context.Context, c *cache.Service, logger *zap.Logger, notify func(keys ...string), keys []string) {
	for _, key := range keys {
		c.Remove(ctx, key)
	}
	logger.Debug("cache invalidated", zap.Strings("keys", keys))
	if notify != nil {
		notify(keys...)
	}
}

var (
	_ UserRepository = (*CachingUserRepository)(nil)
	_ TodoRepository = (*CachingTodoRepository)(nil)
)
