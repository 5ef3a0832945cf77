package provider

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/objectstore"
)

// Attachment is an open todo attachment. Callers must close it.
type Attachment struct {
	*objectstore.Object
	Filename string
}

// FileProvider stores one attachment per todo in the object store and keeps
// its metadata in the database.
type FileProvider struct {
	store   Managers
	objects ObjectStore
	todos   *TodoProvider
	logger  *zap.Logger
}

func NewFileProvider(store Managers, objects ObjectStore, todos *TodoProvider, logger *zap.Logger) *FileProvider {
	return &FileProvider{store: store, objects: objects, todos: todos, logger: logger}
}

// Upload stores r as the attachment of the todo and records its metadata.
// size may be -1 when unknown.
func (p *FileProvider) Upload(ctx context.Context, todoID uuid.UUID, filename, contentType string, size int64, r io.Reader) (*data.FileMetadata, error) {
	filename = path.Base(filename)
	if filename == "." || filename == "/" {
		return nil, apperr.ErrInvalidPayload
	}

	m := p.store.NewManager()
	t, err := m.Todos().FindByID(ctx, todoID, true)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.TodoNotFound(todoID)
	}

	if err := p.objects.EnsureBucket(ctx); err != nil {
		return nil, apperr.Network(err, "prepare bucket")
	}
	name := todoID.String() + "/" + uuid.NewString() + "-" + filename
	if err := p.objects.Put(ctx, name, contentType, size, r); err != nil {
		return nil, apperr.Network(err, "upload file")
	}

	now := p.todos.now().UTC()
	meta := &data.FileMetadata{
		AttachedTodoID: todoID,
		Filename:       filename,
		Filetype:       contentType,
		Filesize:       size,
		Filepath:       name,
		CreateDate:     now,
		UpdateDate:     now,
	}
	m.Files().Create(ctx, meta)
	t.MultimediaFilePath = &name
	t.UpdateDate = now
	m.Todos().Update(ctx, t)
	if err := m.Save(ctx); err != nil {
		p.logger.Warn("uploaded file left without metadata", zap.String("object", name), zap.Error(err))
		return nil, err
	}

	p.todos.invalidate(ctx, t)
	p.logger.Info("file attached", zap.String("todo_id", todoID.String()), zap.String("object", name))
	return meta, nil
}

// Open streams the attachment of the todo.
func (p *FileProvider) Open(ctx context.Context, todoID uuid.UUID) (*Attachment, error) {
	name, err := p.objectName(ctx, todoID)
	if err != nil {
		return nil, err
	}
	obj, err := p.objects.Get(ctx, name)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return nil, apperr.FileNotFound(name)
		}
		return nil, apperr.Network(err, "download file")
	}
	return &Attachment{Object: obj, Filename: displayName(name)}, nil
}

// URL returns a presigned download link for the attachment of the todo.
func (p *FileProvider) URL(ctx context.Context, todoID uuid.UUID) (string, error) {
	name, err := p.objectName(ctx, todoID)
	if err != nil {
		return "", err
	}
	u, err := p.objects.PresignedURL(ctx, name)
	if err != nil {
		return "", apperr.Network(err, "presign file url")
	}
	return u.String(), nil
}

func (p *FileProvider) objectName(ctx context.Context, todoID uuid.UUID) (string, error) {
	t, err := p.todos.ByID(ctx, todoID)
	if err != nil {
		return "", err
	}
	if t.MultimediaFilePath == nil || *t.MultimediaFilePath == "" {
		return "", apperr.FileNotFound(todoID.String())
	}
	return *t.MultimediaFilePath, nil
}

// displayName strips the directory and the uniqueness prefix added on upload.
func displayName(name string) string {
	base := path.Base(name)
	if len(base) > 37 && base[36] == '-' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}
