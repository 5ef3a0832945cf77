package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const userIDContextKey contextKey = "userID"

var errUnauthorized = errors.New("unauthorized")

// requireAuth rejects requests without a valid jwt cookie and stores the
// token's subject in the request context.
func (app *Application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Cookie")
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			app.writeError(w, r, errUnauthorized, http.StatusUnauthorized)
			return
		}
		subject, err := app.tokens.UserID(cookie.Value)
		if err != nil {
			app.logger.Debug("rejected session token", zap.Error(err))
			app.writeError(w, r, errUnauthorized, http.StatusUnauthorized)
			return
		}
		id, err := uuid.Parse(subject)
		if err != nil {
			app.writeError(w, r, errUnauthorized, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromRequest(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDContextKey).(uuid.UUID)
	return id, ok
}

func (app *Application) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		app.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}
