package provider

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/harlequingg/todo-api/internal/cache"
	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/mailer"
	"github.com/harlequingg/todo-api/internal/objectstore"
	"github.com/harlequingg/todo-api/internal/storage"
	"github.com/harlequingg/todo-api/internal/storage/storagetest"
	"github.com/harlequingg/todo-api/internal/token"
)

type fakeSession struct {
	token string
}

func (s *fakeSession) Token() (string, bool) { return s.token, s.token != "" }
func (s *fakeSession) SetToken(token string)  { s.token = token }
func (s *fakeSession) ClearToken()            { s.token = "" }

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, template string, data any) error {
	return m.Called(ctx, to, template, data).Error(0)
}

// memoryObjects is an ObjectStore kept in a map.
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (o *memoryObjects) EnsureBucket(context.Context) error { return nil }

func (o *memoryObjects) Put(_ context.Context, name, contentType string, _ int64, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[name] = b
	o.types[name] = contentType
	return nil
}

func (o *memoryObjects) Get(_ context.Context, name string) (*objectstore.Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.objects[name]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return &objectstore.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(b)),
		Size:        int64(len(b)),
		ContentType: o.types[name],
	}, nil
}

func (o *memoryObjects) PresignedURL(_ context.Context, name string) (*url.URL, error) {
	return &url.URL{Scheme: "http", Host: "minio.local", Path: "/todo-files/" + name}, nil
}

type fixture struct {
	store  *storage.Store
	cache  *cache.Service
	tokens *token.Service
	mailer *mockMailer
	users  *UserProvider
	auth   *AuthProvider
	todos  *TodoProvider
	files  *FileProvider
	objs   *memoryObjects
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	memory := cache.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = memory.Close() })
	c := cache.NewService(memory, zap.NewNop())

	store := storage.NewStore(storagetest.Open(t), zap.NewNop(), storage.WithCache(c))
	tokens := token.NewService("test-secret", 1)
	t.Cleanup(func() { _ = tokens.Close() })

	m := new(mockMailer)
	users := NewUserProvider(store, zap.NewNop())
	confirmations := NewEmailConfirmation(tokens, m, "http://localhost:5173/")
	todos := NewTodoProvider(store, c, zap.NewNop())
	objs := newMemoryObjects()

	return &fixture{
		store:  store,
		cache:  c,
		tokens: tokens,
		mailer: m,
		users:  users,
		auth:   NewAuthProvider(users, store, tokens, confirmations, zap.NewNop(), WithBcryptCost(bcrypt.MinCost)),
		todos:  todos,
		files:  NewFileProvider(store, objs, todos, zap.NewNop()),
		objs:   objs,
	}
}

// register creates a user through the auth provider, accepting any
// confirmation mail.
func (f *fixture) register(t *testing.T, username, password string) *data.User {
	t.Helper()
	f.mailer.On("Send", mock.Anything, username+"@example.com", mailer.ConfirmEmailTemplate, mock.Anything).Return(nil).Maybe()

	resp, err := f.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	return resp.User
}
