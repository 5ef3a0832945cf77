package provider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/data"
)

type UserProvider struct {
	store  Managers
	logger *zap.Logger
	now    func() time.Time
}

func NewUserProvider(store Managers, logger *zap.Logger) *UserProvider {
	return &UserProvider{store: store, logger: logger, now: time.Now}
}

// Create stamps the user's dates in UTC and persists it.
func (p *UserProvider) Create(ctx context.Context, u *data.User) error {
	now := p.now().UTC()
	u.CreateDate = now
	u.UpdateDate = now

	m := p.store.NewManager()
	m.Users().Create(ctx, u)
	if err := m.Save(ctx); err != nil {
		return err
	}
	p.logger.Info("user created", zap.String("user_id", u.ID.String()), zap.String("username", u.Username))
	return nil
}

// ByUsername returns nil, nil for an empty or unknown username.
func (p *UserProvider) ByUsername(ctx context.Context, username string) (*data.User, error) {
	if username == "" {
		return nil, nil
	}
	return p.store.NewManager().Users().FindByUsername(ctx, username, false)
}

// ByEmail returns nil, nil for an empty or unknown email.
func (p *UserProvider) ByEmail(ctx context.Context, email string) (*data.User, error) {
	if email == "" {
		return nil, nil
	}
	return p.store.NewManager().Users().FindByEmail(ctx, email, false)
}

func (p *UserProvider) ByID(ctx context.Context, id uuid.UUID) (*data.User, error) {
	return p.store.NewManager().Users().FindByID(ctx, id, false)
}
