package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/harlequingg/todo-api/internal/data"
)

type UserRepository interface {
	FindAll(ctx context.Context, trackChanges bool) ([]*data.User, error)
	FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.User, error)
	FindByUsername(ctx context.Context, username string, trackChanges bool) (*data.User, error)
	FindByEmail(ctx context.Context, email string, trackChanges bool) (*data.User, error)
	Create(ctx context.Context, u *data.User)
	Update(ctx context.Context, u *data.User)
	Delete(ctx context.Context, u *data.User)
}

type userRepository struct {
	*repository[data.User]
}

func newUserRepository(uow *unitOfWork) *userRepository {
	r := newRepository[data.User](uow, "users")
	r.order = "username"
	return &userRepository{repository: r}
}

func (r *userRepository) FindAll(ctx context.Context, trackChanges bool) ([]*data.User, error) {
	return r.findAll(ctx, trackChanges)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.User, error) {
	return r.findByID(ctx, id, trackChanges)
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.User, error) {
	return r.findByIDs(ctx, ids, trackChanges)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string, trackChanges bool) (*data.User, error) {
	return r.findOne(ctx, trackChanges, where("username = ?", username))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string, trackChanges bool) (*data.User, error) {
	return r.findOne(ctx, trackChanges, where("email = ?", email))
}

func (r *userRepository) Create(_ context.Context, u *data.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.create(u)
}

func (r *userRepository) Update(_ context.Context, u *data.User) {
	r.stageUpdate(u)
}

func (r *userRepository) Delete(_ context.Context, u *data.User) {
	r.delete(u)
}
