package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/provider"
)

type todoRequest struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Notes           *string    `json:"notes" validate:"omitempty,max=2000"`
	DifficultyLevel *int       `json:"difficulty_level" validate:"omitempty,gte=1,lte=5"`
	CompletedOn     *time.Time `json:"completed_on"`
	Tags            []string   `json:"tags" validate:"omitempty,dive,required,max=10"`
}

func (t todoRequest) input() provider.TodoInput {
	return provider.TodoInput{
		Name:            t.Name,
		Notes:           t.Notes,
		DifficultyLevel: t.DifficultyLevel,
		CompletedOn:     t.CompletedOn,
		Tags:            t.Tags,
	}
}

// listing converts a provider result into the response body.
func (app *Application) listing(todos []*data.Todo, err error) ([]todoResponse, error) {
	if err != nil {
		return nil, err
	}
	return newTodoResponses(todos), nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name + " parameter")
	}
	return id, nil
}

// readTodo decodes and validates a todo body, answering the request itself
// when it is unusable.
func (app *Application) readTodo(w http.ResponseWriter, r *http.Request) (todoRequest, bool) {
	var input todoRequest
	if err := readJSON(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return input, false
	}
	if problems := app.validate.check(input); problems != nil {
		app.failedValidation(w, r, problems)
		return input, false
	}
	return input, true
}

func (app *Application) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var todos []todoResponse
	var err error

	switch {
	case q.Get("tag") != "":
		tagID, perr := uuid.Parse(q.Get("tag"))
		if perr != nil {
			app.badRequest(w, r, errors.New("invalid tag parameter"))
			return
		}
		todos, err = app.listing(app.todos.WithTag(r.Context(), tagID))
	case q.Get("difficulty") != "":
		level, perr := strconv.Atoi(q.Get("difficulty"))
		if perr != nil {
			app.badRequest(w, r, errors.New("invalid difficulty parameter"))
			return
		}
		todos, err = app.listing(app.todos.WithDifficulty(r.Context(), level))
	default:
		todos, err = app.listing(app.todos.All(r.Context()))
	}
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, todos)
}

func (app *Application) openTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	todos, err := app.listing(app.todos.OpenByUserID(r.Context(), userID))
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, todos)
}

func (app *Application) completedTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	todos, err := app.listing(app.todos.CompletedByUserID(r.Context(), userID))
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, todos)
}

func (app *Application) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	todo, err := app.todos.ByID(r.Context(), id)
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, newTodoResponse(todo))
}

func (app *Application) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		app.writeError(w, r, errUnauthorized, http.StatusUnauthorized)
		return
	}
	input, ok := app.readTodo(w, r)
	if !ok {
		return
	}
	todo, err := app.todos.Add(r.Context(), userID, input.input())
	if err != nil {
		app.failed(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/todo/"+todo.ID.String())
	app.writeJSON(w, r, http.StatusCreated, newTodoResponse(todo))
}

func (app *Application) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	input, ok := app.readTodo(w, r)
	if !ok {
		return
	}
	todo, err := app.todos.Update(r.Context(), id, input.input())
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, newTodoResponse(todo))
}

func (app *Application) completeTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	var input struct {
		CompletedOn *time.Time `json:"completed_on"`
	}
	if err := readJSON(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}
	if input.CompletedOn == nil {
		app.failedValidation(w, r, map[string]string{"completed_on": "must be provided"})
		return
	}
	todo, err := app.todos.Complete(r.Context(), id, *input.CompletedOn)
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, newTodoResponse(todo))
}

func (app *Application) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	if err := app.todos.Delete(r.Context(), id); err != nil {
		app.failed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, app.config.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		app.badRequest(w, r, errors.New("a multipart file field named \"file\" is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	meta, err := app.files.Upload(r.Context(), id, header.Filename, contentType, header.Size, file)
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, newFileResponse(meta))
}

func (app *Application) downloadFileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	att, err := app.files.Open(r.Context(), id)
	if err != nil {
		app.failed(w, r, err)
		return
	}
	defer att.Close()

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	if att.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(att.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, att); err != nil {
		app.logger.Warn("attachment download interrupted", zap.String("todo_id", id.String()), zap.Error(err))
	}
}

func (app *Application) fileURLHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	link, err := app.files.URL(r.Context(), id)
	if err != nil {
		app.failed(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"url": link})
}
