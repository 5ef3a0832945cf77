// Package api exposes the providers over HTTP.
package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/provider"
)

const sessionCookie = "jwt"

type Config struct {
	Env     string
	Version string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
	// MaxUploadSize bounds attachment uploads in bytes.
	MaxUploadSize int64
}

type Dependencies struct {
	Logger   *zap.Logger
	Auth     *provider.AuthProvider
	Todos    *provider.TodoProvider
	Files    *provider.FileProvider
	Tokens   provider.Tokens
	Registry *prometheus.Registry
}

type Application struct {
	config   Config
	logger   *zap.Logger
	auth     *provider.AuthProvider
	todos    *provider.TodoProvider
	files    *provider.FileProvider
	tokens   provider.Tokens
	registry *prometheus.Registry
	metrics  *httpMetrics
	validate *requestValidator
}

func New(cfg Config, deps Dependencies) *Application {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 32 << 20
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Application{
		config:   cfg,
		logger:   deps.Logger,
		auth:     deps.Auth,
		todos:    deps.Todos,
		files:    deps.Files,
		tokens:   deps.Tokens,
		registry: registry,
		metrics:  newHTTPMetrics(registry),
		validate: newValidator(),
	}
}
