package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid payload", err: ErrInvalidPayload, want: http.StatusBadRequest},
		{name: "username taken", err: ErrUsernameTaken, want: http.StatusBadRequest},
		{name: "email taken", err: ErrEmailTaken, want: http.StatusBadRequest},
		{name: "invalid credentials", err: ErrInvalidCredentials, want: http.StatusBadRequest},
		{name: "unauthorized", err: ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "no cookie", err: ErrNoSessionCookie, want: http.StatusUnauthorized},
		{name: "todo not found", err: TodoNotFound(uuid.New()), want: http.StatusNotFound},
		{name: "file not found", err: FileNotFound("a.txt"), want: http.StatusNotFound},
		{name: "database", err: Database(errors.New("conn reset"), "load user"), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestNotFoundKindsAreDistinct(t *testing.T) {
	err := TodoNotFound(uuid.New())
	assert.ErrorIs(t, err, ErrTodoNotFound)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(Database(errors.New("dial tcp: refused"), "load user")))
	assert.Equal(t, "username is already taken", PublicMessage(ErrUsernameTaken))
}
