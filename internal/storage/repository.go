package storage

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harlequingg/todo-api/internal/apperr"
)

type scope = func(*gorm.DB) *gorm.DB

// repository holds the queries shared by every entity. T is the entity type,
// never a pointer.
type repository[T any] struct {
	uow     *unitOfWork
	name    string
	order   string
	preload []string
	// update writes a modified entity. It defaults to saving the columns
	// of T without touching associations.
	update func(tx *gorm.DB, entity *T) error
}

func newRepository[T any](uow *unitOfWork, name string) *repository[T] {
	return &repository[T]{
		uow:  uow,
		name: name,
		update: func(tx *gorm.DB, entity *T) error {
			return tx.Omit(clause.Associations).Save(entity).Error
		},
	}
}

func (r *repository[T]) query(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	q := r.uow.db.WithContext(ctx)
	for _, p := range r.preload {
		q = q.Preload(p)
	}
	if r.order != "" {
		q = q.Order(r.order)
	}
	return q, cancel
}

func (r *repository[T]) findAll(ctx context.Context, trackChanges bool, scopes ...scope) ([]*T, error) {
	q, cancel := r.query(ctx)
	defer cancel()

	var entities []*T
	if err := q.Scopes(scopes...).Find(&entities).Error; err != nil {
		return nil, apperr.Database(err, "query "+r.name)
	}
	if trackChanges {
		for _, e := range entities {
			r.track(e)
		}
	}
	return entities, nil
}

// findOne returns nil, nil when nothing matches.
func (r *repository[T]) findOne(ctx context.Context, trackChanges bool, scopes ...scope) (*T, error) {
	entities, err := r.findAll(ctx, trackChanges, append(scopes, limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

func (r *repository[T]) findByID(ctx context.Context, id uuid.UUID, trackChanges bool) (*T, error) {
	return r.findOne(ctx, trackChanges, where("id = ?", id))
}

func (r *repository[T]) findByIDs(ctx context.Context, ids []uuid.UUID, trackChanges bool) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}
	return r.findAll(ctx, trackChanges, where("id IN ?", ids))
}

func (r *repository[T]) track(entity *T) {
	r.uow.track(entity, func(tx *gorm.DB) error {
		return r.update(tx, entity)
	})
}

func (r *repository[T]) create(entity *T) {
	r.uow.stage(changeCreate, entity, func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
}

func (r *repository[T]) stageUpdate(entity *T) {
	r.uow.stage(changeUpdate, entity, func(tx *gorm.DB) error {
		return r.update(tx, entity)
	})
}

func (r *repository[T]) delete(entity *T) {
	r.uow.stage(changeDelete, entity, func(tx *gorm.DB) error {
		return tx.Select(clause.Associations).Delete(entity).Error
	})
}

func where(query string, args ...any) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func limit(n int) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	}
}
