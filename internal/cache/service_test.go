package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newTestService(t *testing.T, clock *fakeClock) (*Service, *MemoryStore) {
	t.Helper()
	store := newMemoryStore(time.Hour, clock.Now)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, zap.NewNop()), store
}

func TestGetOrCreate_PopulatesThenHits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, newFakeClock())

	calls := 0
	factory := func(context.Context) (*item, error) {
		calls++
		return &item{ID: 1, Name: "first"}, nil
	}

	got, err := GetOrCreate(ctx, svc, "item-1", factory, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, &item{ID: 1, Name: "first"}, got)

	got, err = GetOrCreate(ctx, svc, "item-1", factory, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, &item{ID: 1, Name: "first"}, got)
	assert.Equal(t, 1, calls, "second read is served from the cache")
}

func TestGetOrCreate_RefreshesAfterInvalidationAndTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc, _ := newTestService(t, clock)

	source := item{ID: 1, Name: "v1"}
	factory := func(context.Context) (item, error) { return source, nil }

	got, err := GetOrCreate(ctx, svc, "k", factory, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Name)

	source.Name = "v2"
	got, _ = GetOrCreate(ctx, svc, "k", factory, time.Minute)
	assert.Equal(t, "v1", got.Name, "stale within TTL")

	svc.Remove(ctx, "k")
	got, _ = GetOrCreate(ctx, svc, "k", factory, time.Minute)
	assert.Equal(t, "v2", got.Name, "fresh after invalidation")

	source.Name = "v3"
	clock.Advance(2 * time.Minute)
	got, _ = GetOrCreate(ctx, svc, "k", factory, time.Minute)
	assert.Equal(t, "v3", got.Name, "fresh after TTL")
}

func TestGetOrCreate_FactoryErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, newFakeClock())

	wantErr := errors.New("db down")
	_, err := GetOrCreate(ctx, svc, "k", func(context.Context) (item, error) { return item{}, wantErr }, time.Minute)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, store.Len())
}

func TestGetOrCreate_NilIsNotCached(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, newFakeClock())

	got, err := GetOrCreate(ctx, svc, "k", func(context.Context) (*item, error) { return nil, nil }, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, store.Len())
}

func TestGet_UndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, newFakeClock())

	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), time.Minute))

	_, ok := Get[item](ctx, svc, "k")
	assert.False(t, ok)

	got, err := GetOrCreate(ctx, svc, "k", func(context.Context) (item, error) { return item{ID: 7}, nil }, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)

	cached, ok := Get[item](ctx, svc, "k")
	assert.True(t, ok)
	assert.Equal(t, 7, cached.ID)
}

func TestService_StoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	svc := NewService(store, zap.NewNop(), WithMetrics(metrics))

	boom := errors.New("connection refused")
	store.On("Get", ctx, "k").Return(nil, boom)
	store.On("Set", ctx, "k", mock.Anything, time.Minute).Return(boom)
	store.On("Delete", ctx, "k").Return(boom)
	store.On("Exists", ctx, "k").Return(false, boom)

	got, err := GetOrCreate(ctx, svc, "k", func(context.Context) (item, error) { return item{ID: 3}, nil }, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)

	svc.Remove(ctx, "k")
	assert.False(t, svc.Exists(ctx, "k"))

	store.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errors.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.errors.WithLabelValues("set")))
}

func TestMetrics_CountsHits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewService(store, zap.NewNop(), WithMetrics(metrics))

	Set(ctx, svc, "k", item{ID: 1}, time.Minute)
	_, ok := Get[item](ctx, svc, "k")
	require.True(t, ok)
	_, ok = Get[item](ctx, svc, "other")
	require.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.misses))
}
