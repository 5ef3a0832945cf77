package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/harlequingg/todo-api/internal/data"
)

type FileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*data.FileMetadata, error)
	FindByTodoID(ctx context.Context, todoID uuid.UUID) ([]*data.FileMetadata, error)
	Create(ctx context.Context, f *data.FileMetadata)
	Delete(ctx context.Context, f *data.FileMetadata)
}

type fileRepository struct {
	*repository[data.FileMetadata]
}

func newFileRepository(uow *unitOfWork) *fileRepository {
	r := newRepository[data.FileMetadata](uow, "file metadata")
	r.order = "create_date DESC"
	return &fileRepository{repository: r}
}

func (r *fileRepository) FindByID(ctx context.Context, id uuid.UUID) (*data.FileMetadata, error) {
	return r.findByID(ctx, id, false)
}

func (r *fileRepository) FindByTodoID(ctx context.Context, todoID uuid.UUID) ([]*data.FileMetadata, error) {
	return r.findAll(ctx, false, where("attached_todo_id = ?", todoID))
}

func (r *fileRepository) Create(_ context.Context, f *data.FileMetadata) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	r.create(f)
}

func (r *fileRepository) Delete(_ context.Context, f *data.FileMetadata) {
	r.delete(f)
}
