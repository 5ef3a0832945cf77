// Package provider implements the use cases behind the HTTP surface: signing
// users in and out, registration, email confirmation, todo management and
// attachments. Providers open a fresh storage.Manager per operation.
package provider

import (
	"context"
	"io"
	"net/url"

	"github.com/harlequingg/todo-api/internal/objectstore"
	"github.com/harlequingg/todo-api/internal/storage"
	"github.com/harlequingg/todo-api/internal/token"
)

// Session exposes the jwt cookie of the request being served.
type Session interface {
	Token() (string, bool)
	SetToken(token string)
	ClearToken()
}

// Managers starts units of work. *storage.Store satisfies it.
type Managers interface {
	NewManager() storage.Manager
}

// Tokens is the subset of *token.Service the providers rely on.
type Tokens interface {
	Generate(userID, username string) (string, error)
	Validate(raw string) (*token.Claims, error)
	Revoke(raw string)
	UserID(raw string) (string, error)
}

// Mailer delivers a rendered template to one recipient. *mailer.Mailer
// satisfies it.
type Mailer interface {
	Send(ctx context.Context, to, template string, data any) error
}

// ObjectStore holds attachment bytes. *objectstore.Store satisfies it.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, name, contentType string, size int64, r io.Reader) error
	Get(ctx context.Context, name string) (*objectstore.Object, error)
	PresignedURL(ctx context.Context, name string) (*url.URL, error)
}
