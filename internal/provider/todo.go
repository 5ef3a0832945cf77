package provider

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/cache"
	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/storage"
)

// TodoCacheTTL bounds how stale a todo read may be.
const TodoCacheTTL = 5 * time.Minute

func todoKey(id uuid.UUID) string              { return "todo:" + id.String() }
func userTodosKey(userID uuid.UUID) string     { return "todos:" + userID.String() }
func userCompletedKey(userID uuid.UUID) string { return "todos:" + userID.String() + ":completed" }

// TodoInput carries the client-editable fields of a todo. Tags are names;
// existing tags are reused.
type TodoInput struct {
	Name            string
	Notes           *string
	DifficultyLevel *int
	CompletedOn     *time.Time
	Tags            []string
}

type TodoProvider struct {
	store  Managers
	cache  *cache.Service
	logger *zap.Logger
	now    func() time.Time
}

func NewTodoProvider(store Managers, c *cache.Service, logger *zap.Logger) *TodoProvider {
	return &TodoProvider{store: store, cache: c, logger: logger, now: time.Now}
}

func (p *TodoProvider) All(ctx context.Context) ([]*data.Todo, error) {
	return p.store.NewManager().Todos().FindAll(ctx, false)
}

func (p *TodoProvider) ByID(ctx context.Context, id uuid.UUID) (*data.Todo, error) {
	t, err := cache.GetOrCreate(ctx, p.cache, todoKey(id), func(ctx context.Context) (*data.Todo, error) {
		return p.store.NewManager().Todos().FindByID(ctx, id, false)
	}, TodoCacheTTL)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.TodoNotFound(id)
	}
	return t, nil
}

func (p *TodoProvider) ByUserID(ctx context.Context, userID uuid.UUID) ([]*data.Todo, error) {
	return cache.GetOrCreate(ctx, p.cache, userTodosKey(userID), func(ctx context.Context) ([]*data.Todo, error) {
		return p.store.NewManager().Todos().FindByUserID(ctx, userID, false)
	}, TodoCacheTTL)
}

func (p *TodoProvider) CompletedByUserID(ctx context.Context, userID uuid.UUID) ([]*data.Todo, error) {
	return cache.GetOrCreate(ctx, p.cache, userCompletedKey(userID), func(ctx context.Context) ([]*data.Todo, error) {
		return p.store.NewManager().Todos().FindCompletedByUserID(ctx, userID, false)
	}, TodoCacheTTL)
}

// OpenByUserID lists the user's todos without a completion time.
func (p *TodoProvider) OpenByUserID(ctx context.Context, userID uuid.UUID) ([]*data.Todo, error) {
	todos, err := p.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	open := make([]*data.Todo, 0, len(todos))
	for _, t := range todos {
		if !t.IsCompleted() {
			open = append(open, t)
		}
	}
	return open, nil
}

func (p *TodoProvider) WithTag(ctx context.Context, tagID uuid.UUID) ([]*data.Todo, error) {
	return p.store.NewManager().Todos().FindByTag(ctx, tagID, false)
}

func (p *TodoProvider) WithDifficulty(ctx context.Context, level int) ([]*data.Todo, error) {
	return p.store.NewManager().Todos().FindByDifficulty(ctx, level, false)
}

// Add creates a todo owned by userID.
func (p *TodoProvider) Add(ctx context.Context, userID uuid.UUID, in TodoInput) (*data.Todo, error) {
	now := p.now().UTC()
	t := &data.Todo{
		UserID:     userID,
		CreateDate: now,
		UpdateDate: now,
	}

	m := p.store.NewManager()
	if err := p.apply(ctx, m, t, in); err != nil {
		return nil, err
	}
	m.Todos().Create(ctx, t)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}

	p.invalidate(ctx, t)
	p.logger.Info("todo created", zap.String("todo_id", t.ID.String()), zap.String("user_id", userID.String()))
	return t, nil
}

// Update replaces the editable fields of the todo.
func (p *TodoProvider) Update(ctx context.Context, id uuid.UUID, in TodoInput) (*data.Todo, error) {
	m := p.store.NewManager()
	t, err := m.Todos().FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.TodoNotFound(id)
	}

	if err := p.apply(ctx, m, t, in); err != nil {
		return nil, err
	}
	t.UpdateDate = p.now().UTC()
	m.Todos().Update(ctx, t)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}

	p.invalidate(ctx, t)
	return t, nil
}

// Complete sets the completion time of the todo to at.
func (p *TodoProvider) Complete(ctx context.Context, id uuid.UUID, at time.Time) (*data.Todo, error) {
	m := p.store.NewManager()
	t, err := m.Todos().FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.TodoNotFound(id)
	}
	at = at.UTC()
	if at.Before(t.CreateDate) {
		return nil, apperr.ErrInvalidCompletion
	}

	t.CompletedOn = &at
	t.UpdateDate = p.now().UTC()
	m.Todos().Update(ctx, t)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}

	p.invalidate(ctx, t)
	return t, nil
}

func (p *TodoProvider) Delete(ctx context.Context, id uuid.UUID) error {
	m := p.store.NewManager()
	t, err := m.Todos().FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.TodoNotFound(id)
	}

	m.Todos().Delete(ctx, t)
	if err := m.Save(ctx); err != nil {
		return err
	}

	p.invalidate(ctx, t)
	p.logger.Info("todo deleted", zap.String("todo_id", id.String()))
	return nil
}

// apply validates in and copies it onto t.
func (p *TodoProvider) apply(ctx context.Context, m storage.Manager, t *data.Todo, in TodoInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.ErrInvalidPayload
	}
	if in.CompletedOn != nil {
		completed := in.CompletedOn.UTC()
		if completed.Before(t.CreateDate) {
			return apperr.ErrInvalidCompletion
		}
		in.CompletedOn = &completed
	}
	tags, err := resolveTags(ctx, m, in.Tags)
	if err != nil {
		return err
	}

	t.Name = in.Name
	t.Notes = in.Notes
	t.DifficultyLevel = in.DifficultyLevel
	t.CompletedOn = in.CompletedOn
	t.Tags = tags
	return nil
}

// resolveTags maps names onto existing tags, creating the missing ones.
func resolveTags(ctx context.Context, m storage.Manager, names []string) ([]data.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	existing, err := m.Tags().FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]data.Tag, len(existing))
	for _, tag := range existing {
		byName[tag.Name] = *tag
	}

	tags := make([]data.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > data.MaxTagNameLength {
			return nil, apperr.ErrInvalidPayload
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if tag, ok := byName[name]; ok {
			tags = append(tags, tag)
			continue
		}
		tags = append(tags, data.Tag{Name: name})
	}
	return tags, nil
}

func (p *TodoProvider) invalidate(ctx context.Context, t *data.Todo) {
	p.cache.Remove(ctx, todoKey(t.ID))
	p.cache.Remove(ctx, userTodosKey(t.UserID))
	p.cache.Remove(ctx, userCompletedKey(t.UserID))
}
