package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the HTTP handler.
func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(app.logRequests)
	r.Use(app.instrument)

	r.Get("/v1/healthcheck", app.healthCheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", app.loginHandler)
		r.Post("/register", app.registerHandler)
		r.Get("/confirm-email", app.confirmEmailHandler)
		r.With(app.requireAuth).Post("/logout", app.logoutHandler)
		r.With(app.requireAuth).Get("/user", app.userHandler)
	})

	r.Route("/api/todo", func(r chi.Router) {
		r.Use(app.requireAuth)

		r.Get("/", app.listTodosHandler)
		r.Post("/", app.createTodoHandler)
		r.Get("/users/{userID}/todos", app.openTodosHandler)
		r.Get("/users/{userID}/completed-todos", app.completedTodosHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.getTodoHandler)
			r.Put("/", app.updateTodoHandler)
			r.Delete("/", app.deleteTodoHandler)
			r.Put("/complete", app.completeTodoHandler)
			r.Post("/file", app.uploadFileHandler)
			r.Get("/file", app.downloadFileHandler)
			r.Get("/file/url", app.fileURLHandler)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.writeError(w, r, errNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.writeError(w, r, errMethodNotAllowed, http.StatusMethodNotAllowed)
	})

	return r
}
