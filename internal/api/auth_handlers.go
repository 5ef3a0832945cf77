package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/provider"
)

// writeAuth answers with the provider's response, using the status its error
// maps to.
func (app *Application) writeAuth(w http.ResponseWriter, r *http.Request, resp provider.AuthResponse, err error) {
	status := http.StatusOK
	if err != nil {
		status = apperr.Status(err)
		if status >= http.StatusInternalServerError {
			app.logger.Error("auth request failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		if resp.Message == "" {
			resp.Message = apperr.PublicMessage(err)
		}
		resp.Success = false
	}
	app.writeJSON(w, r, status, newAuthResponse(resp))
}

func (app *Application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, authResponse{Message: provider.MsgLoginInvalidPayload})
		return
	}

	resp, err := app.auth.Login(r.Context(), app.session(w, r), provider.LoginRequest{
		Username: input.Username,
		Password: input.Password,
	})
	app.writeAuth(w, r, resp, err)
}

func (app *Application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,max=60"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := readJSON(w, r, &input); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, authResponse{Message: provider.MsgInvalidPayload})
		return
	}
	if problems := app.validate.check(input); problems != nil {
		app.writeJSON(w, r, http.StatusBadRequest, authResponse{Message: provider.MsgInvalidPayload, Errors: problems})
		return
	}

	resp, err := app.auth.Register(r.Context(), provider.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	app.writeAuth(w, r, resp, err)
}

func (app *Application) confirmEmailHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := app.auth.ConfirmEmail(r.Context(), r.URL.Query().Get("token"))
	app.writeAuth(w, r, resp, err)
}

func (app *Application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := app.auth.Logout(r.Context(), app.session(w, r))
	app.writeAuth(w, r, resp, err)
}

func (app *Application) userHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := app.auth.UserByToken(r.Context(), app.session(w, r))
	app.writeAuth(w, r, resp, err)
}
