package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/harlequingg/todo-api/internal/data"
)

type TagRepository interface {
	FindAll(ctx context.Context, trackChanges bool) ([]*data.Tag, error)
	FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.Tag, error)
	Create(ctx context.Context, t *data.Tag)
	Update(ctx context.Context, t *data.Tag)
	Delete(ctx context.Context, t *data.Tag)
}

type tagRepository struct {
	*repository[data.Tag]
}

func newTagRepository(uow *unitOfWork) *tagRepository {
	r := newRepository[data.Tag](uow, "tags")
	r.order = "name"
	return &tagRepository{repository: r}
}

func (r *tagRepository) FindAll(ctx context.Context, trackChanges bool) ([]*data.Tag, error) {
	return r.findAll(ctx, trackChanges)
}

func (r *tagRepository) FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.Tag, error) {
	return r.findByID(ctx, id, trackChanges)
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.Tag, error) {
	return r.findByIDs(ctx, ids, trackChanges)
}

func (r *tagRepository) Create(_ context.Context, t *data.Tag) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.create(t)
}

func (r *tagRepository) Update(_ context.Context, t *data.Tag) {
	r.stageUpdate(t)
}

func (r *tagRepository) Delete(_ context.Context, t *data.Tag) {
	r.delete(t)
}
