package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/cache"
)

// Manager groups the repositories of one unit of work. Create, Update and
// Delete only stage changes; Save writes them, together with any edits made
// to entities loaded with trackChanges, in a single transaction.
type Manager interface {
	Users() UserRepository
	Todos() TodoRepository
	Tags() TagRepository
	Files() FileRepository
	Save(ctx context.Context) error
}

// Store hands out managers. It is safe for concurrent use; managers are not.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.Service
}

type StoreOption func(*Store)

// WithCache serves user and todo lookups through the cache.
func WithCache(c *cache.Service) StoreOption {
	return func(s *Store) {
		s.cache = c
	}
}

func NewStore(db *gorm.DB, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{db: db, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewManager starts a unit of work.
func (s *Store) NewManager() Manager {
	uow := &unitOfWork{db: s.db}
	m := &manager{
		uow:   uow,
		users: newUserRepository(uow),
		todos: newTodoRepository(uow),
		tags:  newTagRepository(uow),
		files: newFileRepository(uow),
	}
	if s.cache == nil {
		return m
	}

	cm := &cachingManager{manager: m, cache: s.cache}
	cm.users = NewCachingUserRepository(m.users, s.cache, s.logger, cm.invalidated)
	cm.todos = NewCachingTodoRepository(m.todos, s.cache, s.logger, cm.invalidated)
	return cm
}

type manager struct {
	uow   *unitOfWork
	users UserRepository
	todos TodoRepository
	tags  TagRepository
	files FileRepository
}

func (m *manager) Users() UserRepository { return m.users }
func (m *manager) Todos() TodoRepository { return m.todos }
func (m *manager) Tags() TagRepository   { return m.tags }
func (m *manager) Files() FileRepository { return m.files }

func (m *manager) Save(ctx context.Context) error {
	return m.uow.save(ctx)
}

// cachingManager drops the keys invalidated while staging a second time once
// the transaction commits, so a read racing the write cannot leave the old
// value cached for a full TTL.
type cachingManager struct {
	*manager
	users   UserRepository
	todos   TodoRepository
	cache   *cache.Service
	pending []string
}

func (m *cachingManager) Users() UserRepository { return m.users }
func (m *cachingManager) Todos() TodoRepository { return m.todos }

func (m *cachingManager) invalidated(keys ...string) {
	m.pending = append(m.pending, keys...)
}

func (m *cachingManager) Save(ctx context.Context) error {
	if err := m.manager.Save(ctx); err != nil {
		return err
	}
	for _, key := range m.pending {
		m.cache.Remove(ctx, key)
	}
	m.pending = nil
	return nil
}

type changeKind int

const (
	changeCreate changeKind = iota
	changeUpdate
	changeDelete
)

type change struct {
	kind   changeKind
	entity any
	apply  func(tx *gorm.DB) error
}

type trackedEntity struct {
	entity   any
	snapshot []byte
	update   func(tx *gorm.DB) error
}

type unitOfWork struct {
	db      *gorm.DB
	changes []change
	tracked []trackedEntity
}

func (u *unitOfWork) stage(kind changeKind, entity any, apply func(tx *gorm.DB) error) {
	u.changes = append(u.changes, change{kind: kind, entity: entity, apply: apply})
}

func (u *unitOfWork) track(entity any, update func(tx *gorm.DB) error) {
	snapshot, err := json.Marshal(entity)
	if err != nil {
		return
	}
	u.tracked = append(u.tracked, trackedEntity{entity: entity, snapshot: snapshot, update: update})
}

// pending lists tracked entities that were modified in memory and have no
// explicit change staged.
func (u *unitOfWork) pending() []func(tx *gorm.DB) error {
	staged := make(map[any]bool, len(u.changes))
	for _, c := range u.changes {
		staged[c.entity] = true
	}

	var updates []func(tx *gorm.DB) error
	for _, t := range u.tracked {
		if staged[t.entity] {
			continue
		}
		current, err := json.Marshal(t.entity)
		if err != nil || bytes.Equal(current, t.snapshot) {
			continue
		}
		updates = append(updates, t.update)
	}
	return updates
}

func (u *unitOfWork) save(ctx context.Context) error {
	updates := u.pending()
	if len(u.changes) == 0 && len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range u.changes {
			if err := c.apply(tx); err != nil {
				return err
			}
		}
		for _, update := range updates {
			if err := update(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict(err, "record already exists")
		}
		return apperr.Database(err, "save changes")
	}

	u.changes = nil
	for i := range u.tracked {
		if snapshot, err := json.Marshal(u.tracked[i].entity); err == nil {
			u.tracked[i].snapshot = snapshot
		}
	}
	return nil
}
