package cache

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// Service is the typed facade over a Store. It is best-effort: store failures
// are logged and reported as misses, never returned to callers.
type Service struct {
	store   Store
	logger  *zap.Logger
	metrics *Metrics
}

type ServiceOption func(*Service)

// WithMetrics records hit, miss and error counts.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remove deletes key.
func (s *Service) Remove(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.metrics.failed("delete")
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Exists reports whether key holds an unexpired value.
func (s *Service) Exists(ctx context.Context, key string) bool {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		s.metrics.failed("exists")
		s.logger.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// Get returns the value cached under key. ok is false on a miss, on a store
// failure and when the stored bytes do not decode into T.
func Get[T any](ctx context.Context, s *Service, key string) (value T, ok bool) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.metrics.failed("get")
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.miss()
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Debug("cache entry does not decode, treating as miss", zap.String("key", key), zap.Error(err))
		s.metrics.miss()
		var zero T
		return zero, false
	}
	s.metrics.hit()
	return value, true
}

// Set stores value under key for ttl.
func Set[T any](ctx context.Context, s *Service, key string, value T, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache value does not encode", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, raw, ttl); err != nil {
		s.metrics.failed("set")
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// GetOrCreate returns the cached value for key, or calls factory once, caches
// its result for ttl and returns it. Concurrent misses are not coalesced.
// Factory errors are returned and nothing is cached; nil pointer results are
// returned but not cached.
func GetOrCreate[T any](ctx context.Context, s *Service, key string, factory func(context.Context) (T, error), ttl time.Duration) (T, error) {
	if value, ok := Get[T](ctx, s, key); ok {
		return value, nil
	}

	value, err := factory(ctx)
	if err != nil {
		return value, err
	}
	if isNil(value) {
		return value, nil
	}

	Set(ctx, s, key, value, ttl)
	return value, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
