package token

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s := NewService(testSecret, 1, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	s := newTestService(t)

	raw, err := s.Generate("5f0c7a5e-6b1e-4c39-9d4e-1d2f3a4b5c6d", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := s.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "5f0c7a5e-6b1e-4c39-9d4e-1d2f3a4b5c6d", claims.UserID())
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	id, err := s.UserID(raw)
	require.NoError(t, err)
	assert.Equal(t, "5f0c7a5e-6b1e-4c39-9d4e-1d2f3a4b5c6d", id)
}

func TestGenerateRejectsEmptyInputs(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name     string
		userID   string
		username string
	}{
		{name: "empty user id", username: "alice"},
		{name: "empty username", userID: "1"},
		{name: "both empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := s.Generate(tt.userID, tt.username)
			assert.ErrorIs(t, err, ErrEmptyClaims)
			assert.Empty(t, raw)
		})
	}
}

func TestGenerateWithoutSecret(t *testing.T) {
	s := NewService("", 1)
	defer s.Close()

	_, err := s.Generate("1", "alice")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}

func TestRevokeAndClear(t *testing.T) {
	s := newTestService(t)

	raw, err := s.Generate("1", "alice")
	require.NoError(t, err)

	s.Revoke(raw)
	_, err = s.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = s.UserID(raw)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	s.ClearRevoked()
	claims, err := s.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID())
}

func TestRevokeIsCheckedBeforeParsing(t *testing.T) {
	s := newTestService(t)

	s.Revoke("garbage")
	_, err := s.Validate("garbage")
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateExpired(t *testing.T) {
	past := time.Now().Add(-72 * time.Hour)
	issuer := newTestService(t, WithClock(func() time.Time { return past }))

	raw, err := issuer.Generate("1", "alice")
	require.NoError(t, err)

	s := newTestService(t)
	_, err = s.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	s := newTestService(t)

	other := NewService("another-secret", 1)
	defer other.Close()
	foreign, err := other.Generate("1", "alice")
	require.NoError(t, err)

	claims := Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "malformed", raw: "not.a.token"},
		{name: "wrong signature", raw: foreign},
		{name: "wrong algorithm", raw: hs512},
		{name: "unsigned", raw: unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Validate(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRevocationPrunesExpiredTokens(t *testing.T) {
	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	s := newTestService(t, WithClock(clock), WithPruneInterval(0))

	raw, err := s.Generate("1", "alice")
	require.NoError(t, err)
	s.Revoke(raw)
	s.Revoke("unreadable")
	assert.Equal(t, 2, s.revoked.len())

	s.revoked.prune()
	assert.Equal(t, 2, s.revoked.len(), "unexpired entries are kept")

	mu.Lock()
	now = now.Add(49 * time.Hour)
	mu.Unlock()

	s.revoked.prune()
	assert.Equal(t, 0, s.revoked.len())
}

func TestConcurrentRevokeAndValidate(t *testing.T) {
	s := newTestService(t)
	raw, err := s.Generate("1", "alice")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Revoke(raw)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Validate(raw)
		}()
	}
	wg.Wait()

	_, err = s.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
