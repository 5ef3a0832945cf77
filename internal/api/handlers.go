package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/apperr"
)

var (
	errNotFound         = errors.New("the requested resource could not be found")
	errMethodNotAllowed = errors.New("the method is not supported for this resource")
)

func (app *Application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":      "available",
		"environment": app.config.Env,
		"version":     app.config.Version,
	})
}

// readJSON decodes a single JSON object from the body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("body contains badly-formed JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (app *Application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.logger.Error("failed to encode response", zap.String("path", r.URL.Path), zap.Error(err))
		app.writeError(w, r, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (app *Application) writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	_, _ = w.Write(body)
}

// failed maps a provider error onto a status and a client-safe message.
func (app *Application) failed(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		app.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", string(apperr.Code(err))),
			zap.Error(err),
		)
	}
	app.writeError(w, r, errors.New(apperr.PublicMessage(err)), status)
}

func (app *Application) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.writeError(w, r, err, http.StatusBadRequest)
}

// failedValidation reports field problems with the same status as any other
// invalid payload.
func (app *Application) failedValidation(w http.ResponseWriter, r *http.Request, problems map[string]string) {
	app.writeJSON(w, r, http.StatusBadRequest, map[string]any{
		"error":  apperr.PublicMessage(apperr.ErrInvalidPayload),
		"fields": problems,
	})
}
