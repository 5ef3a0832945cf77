package provider

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlequingg/todo-api/internal/apperr"
)

func TestFileUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")
	todo, err := f.todos.Add(ctx, alice.ID, TodoInput{Name: "scan receipt"})
	require.NoError(t, err)

	_, err = f.files.Open(ctx, todo.ID)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound, "no attachment yet")

	meta, err := f.files.Upload(ctx, todo.ID, "../receipt.txt", "text/plain", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "receipt.txt", meta.Filename)
	assert.True(t, strings.HasPrefix(meta.Filepath, todo.ID.String()+"/"))

	got, err := f.todos.ByID(ctx, todo.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MultimediaFilePath)
	assert.Equal(t, meta.Filepath, *got.MultimediaFilePath)

	att, err := f.files.Open(ctx, todo.ID)
	require.NoError(t, err)
	defer att.Close()
	assert.Equal(t, "receipt.txt", att.Filename)
	assert.Equal(t, "text/plain", att.ContentType)
	body, err := io.ReadAll(att)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	link, err := f.files.URL(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local/todo-files/"+meta.Filepath, link)

	files, err := f.store.NewManager().Files().FindByTodoID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")

	_, err := f.files.Upload(ctx, uuid.New(), "a.txt", "text/plain", 1, strings.NewReader("a"))
	assert.ErrorIs(t, err, apperr.ErrTodoNotFound)

	_, err = f.files.Open(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrTodoNotFound)

	todo, err := f.todos.Add(ctx, alice.ID, TodoInput{Name: "lost"})
	require.NoError(t, err)
	_, err = f.files.Upload(ctx, todo.ID, "a.txt", "text/plain", 1, strings.NewReader("a"))
	require.NoError(t, err)
	f.objs.objects = map[string][]byte{}

	_, err = f.files.Open(ctx, todo.ID)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
	assert.NotErrorIs(t, err, apperr.ErrTodoNotFound)
}

func TestDisplayName(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, "a.txt", displayName("todo/"+id+"-a.txt"))
	assert.Equal(t, "plain.txt", displayName("plain.txt"))
}
