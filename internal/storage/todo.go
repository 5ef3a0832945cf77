package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harlequingg/todo-api/internal/data"
)

type TodoRepository interface {
	FindAll(ctx context.Context, trackChanges bool) ([]*data.Todo, error)
	FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.Todo, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.Todo, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error)
	FindCompletedByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error)
	FindByTag(ctx context.Context, tagID uuid.UUID, trackChanges bool) ([]*data.Todo, error)
	FindByDifficulty(ctx context.Context, level int, trackChanges bool) ([]*data.Todo, error)
	Create(ctx context.Context, t *data.Todo)
	Update(ctx context.Context, t *data.Todo)
	Delete(ctx context.Context, t *data.Todo)
}

type todoRepository struct {
	*repository[data.Todo]
}

func newTodoRepository(uow *unitOfWork) *todoRepository {
	r := newRepository[data.Todo](uow, "todos")
	r.order = "name"
	r.preload = []string{"Tags"}
	r.update = func(tx *gorm.DB, t *data.Todo) error {
		if err := tx.Omit(clause.Associations).Save(t).Error; err != nil {
			return err
		}
		return tx.Model(t).Association("Tags").Replace(t.Tags)
	}
	return &todoRepository{repository: r}
}

func (r *todoRepository) FindAll(ctx context.Context, trackChanges bool) ([]*data.Todo, error) {
	return r.findAll(ctx, trackChanges)
}

func (r *todoRepository) FindByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*data.Todo, error) {
	return r.findByID(ctx, id, trackChanges)
}

func (r *todoRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	return r.findByIDs(ctx, ids, trackChanges)
}

func (r *todoRepository) FindByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	return r.findAll(ctx, trackChanges, where("user_id = ?", userID))
}

func (r *todoRepository) FindCompletedByUserID(ctx context.Context, userID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	return r.findAll(ctx, trackChanges, where("user_id = ? AND completed_on IS NOT NULL", userID))
}

func (r *todoRepository) FindByTag(ctx context.Context, tagID uuid.UUID, trackChanges bool) ([]*data.Todo, error) {
	tagged := r.uow.db.Table("todo_tags").Select("todo_id").Where("tag_id = ?", tagID)
	return r.findAll(ctx, trackChanges, where("id IN (?)", tagged))
}

func (r *todoRepository) FindByDifficulty(ctx context.Context, level int, trackChanges bool) ([]*data.Todo, error) {
	return r.findAll(ctx, trackChanges, where("difficulty_level = ?", level))
}

func (r *todoRepository) Create(_ context.Context, t *data.Todo) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	assignTagIDs(t)
	r.create(t)
}

func (r *todoRepository) Update(_ context.Context, t *data.Todo) {
	assignTagIDs(t)
	r.stageUpdate(t)
}

func (r *todoRepository) Delete(_ context.Context, t *data.Todo) {
	r.delete(t)
}

// assignTagIDs gives new tags an id so GORM inserts them instead of linking a
// zero key.
func assignTagIDs(t *data.Todo) {
	for i := range t.Tags {
		if t.Tags[i].ID == uuid.Nil {
			t.Tags[i].ID = uuid.New()
		}
	}
}
