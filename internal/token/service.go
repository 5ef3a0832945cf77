// Package token issues and validates the HS256 session tokens carried in the
// jwt cookie, and keeps the process-local revocation set.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	platformerrors "github.com/jmgilman/go/errors"
)

var (
	ErrEmptyClaims         = platformerrors.New(platformerrors.CodeInvalidInput, "user id and username are required")
	ErrSecretNotConfigured = platformerrors.New(platformerrors.CodeInternal, "jwt secret is not configured")
	ErrInvalidToken        = platformerrors.New(platformerrors.CodeUnauthorized, "invalid token")
	ErrTokenRevoked        = platformerrors.New(platformerrors.CodeUnauthorized, "token has been revoked")
	ErrTokenExpired        = platformerrors.New(platformerrors.CodeUnauthorized, "token has expired")
)

const day = 24 * time.Hour

// Claims is the payload of a session token. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

type Service struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *revocationList
}

type Option func(*Service)

// WithClock replaces time.Now when stamping issued tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPruneInterval sets how often expired revocations are dropped.
func WithPruneInterval(d time.Duration) Option {
	return func(s *Service) {
		s.revoked.interval = d
	}
}

// NewService returns a Service signing with secret. Tokens live for
// expiryDays days.
func NewService(secret string, expiryDays float64, opts ...Option) *Service {
	s := &Service{
		secret:  []byte(secret),
		ttl:     time.Duration(expiryDays * float64(day)),
		now:     time.Now,
		revoked: newRevocationList(time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.revoked.now = s.now
	s.revoked.start()
	return s
}

// Close stops the revocation janitor.
func (s *Service) Close() error {
	s.revoked.close()
	return nil
}

// Generate signs a token for userID and username.
func (s *Service) Generate(userID, username string) (string, error) {
	if userID == "" || username == "" {
		return "", ErrEmptyClaims
	}
	if len(s.secret) == 0 {
		return "", ErrSecretNotConfigured
	}

	issuedAt := s.now().UTC()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", platformerrors.Wrap(err, platformerrors.CodeInternal, "sign token")
	}
	return signed, nil
}

// Validate checks the revocation set, then the signature, algorithm and
// expiry of raw.
func (s *Service) Validate(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	if s.revoked.contains(raw) {
		return nil, ErrTokenRevoked
	}
	if len(s.secret) == 0 {
		return nil, ErrSecretNotConfigured
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	switch {
	case err == nil && token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidToken
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrInvalidToken
	}
}

// Revoke rejects raw from now on, even before it expires.
func (s *Service) Revoke(raw string) {
	if raw == "" {
		return
	}
	s.revoked.add(raw, s.expiryOf(raw))
}

// ClearRevoked forgets every revocation.
func (s *Service) ClearRevoked() {
	s.revoked.clear()
}

// UserID validates raw and returns its subject.
func (s *Service) UserID(raw string) (string, error) {
	claims, err := s.Validate(raw)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// expiryOf reads the exp claim without verifying the token. Unreadable tokens
// are kept for a full token lifetime.
func (s *Service) expiryOf(raw string) time.Time {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return s.now().Add(s.ttl)
}
