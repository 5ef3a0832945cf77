package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/provider"
)

type userResponse struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	IsEmailConfirmed bool      `json:"is_email_confirmed"`
	CreateDate       time.Time `json:"create_date"`
	UpdateDate       time.Time `json:"update_date"`
}

func newUserResponse(u *data.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		IsEmailConfirmed: u.IsEmailConfirmed,
		CreateDate:       u.CreateDate,
		UpdateDate:       u.UpdateDate,
	}
}

type authResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	User    *userResponse     `json:"user,omitempty"`
	Token   string            `json:"token,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func newAuthResponse(resp provider.AuthResponse) authResponse {
	return authResponse{
		Success: resp.Success,
		Message: resp.Message,
		User:    newUserResponse(resp.User),
		Token:   resp.Token,
	}
}

type tagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type todoResponse struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"user_id"`
	Name               string        `json:"name"`
	Notes              *string       `json:"notes"`
	DifficultyLevel    *int          `json:"difficulty_level"`
	MultimediaFilePath *string       `json:"multimedia_file_path"`
	CompletedOn        *time.Time    `json:"completed_on"`
	CreateDate         time.Time     `json:"create_date"`
	UpdateDate         time.Time     `json:"update_date"`
	Tags               []tagResponse `json:"tags"`
}

func newTodoResponse(t *data.Todo) todoResponse {
	tags := make([]tagResponse, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, tagResponse{ID: tag.ID, Name: tag.Name})
	}
	return todoResponse{
		ID:                 t.ID,
		UserID:             t.UserID,
		Name:               t.Name,
		Notes:              t.Notes,
		DifficultyLevel:    t.DifficultyLevel,
		MultimediaFilePath: t.MultimediaFilePath,
		CompletedOn:        t.CompletedOn,
		CreateDate:         t.CreateDate,
		UpdateDate:         t.UpdateDate,
		Tags:               tags,
	}
}

func newTodoResponses(todos []*data.Todo) []todoResponse {
	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, newTodoResponse(t))
	}
	return out
}

type fileResponse struct {
	ID         uuid.UUID `json:"id"`
	TodoID     uuid.UUID `json:"todo_id"`
	Filename   string    `json:"filename"`
	Filetype   string    `json:"filetype"`
	Filesize   int64     `json:"filesize"`
	Filepath   string    `json:"filepath"`
	CreateDate time.Time `json:"create_date"`
}

func newFileResponse(f *data.FileMetadata) fileResponse {
	return fileResponse{
		ID:         f.ID,
		TodoID:     f.AttachedTodoID,
		Filename:   f.Filename,
		Filetype:   f.Filetype,
		Filesize:   f.Filesize,
		Filepath:   f.Filepath,
		CreateDate: f.CreateDate,
	}
}
