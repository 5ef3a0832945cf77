package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/harlequingg/todo-api/internal/api"
	"github.com/harlequingg/todo-api/internal/cache"
	"github.com/harlequingg/todo-api/internal/config"
	"github.com/harlequingg/todo-api/internal/mailer"
	"github.com/harlequingg/todo-api/internal/objectstore"
	"github.com/harlequingg/todo-api/internal/provider"
	"github.com/harlequingg/todo-api/internal/storage"
	"github.com/harlequingg/todo-api/internal/token"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := storage.OpenDB(storage.Config{
		DSN:                cfg.DB.DSN,
		MaxOpenConnections: cfg.DB.MaxOpenConnections,
		MaxIdleConnections: cfg.DB.MaxIdleConnections,
		MaxIdleTime:        cfg.DB.MaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()
	logger.Info("established a connection with database")

	db, err := storage.Open(sqlDB, logger.Named("gorm"))
	if err != nil {
		return err
	}
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "todo"),
	)

	store, closeStore, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	c := cache.NewService(store, logger.Named("cache"), cache.WithMetrics(cache.NewMetrics(registry)))

	tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryDays)
	defer tokens.Close()

	m, err := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
	if err != nil {
		return fmt.Errorf("load mail templates: %w", err)
	}

	objects, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		Bucket:    cfg.Minio.Bucket,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
		Region:    cfg.Minio.Region,
	})
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	entities := storage.NewStore(db, logger.Named("storage"), storage.WithCache(c))
	users := provider.NewUserProvider(entities, logger)
	confirmations := provider.NewEmailConfirmation(tokens, m, cfg.FrontendURL)
	todos := provider.NewTodoProvider(entities, c, logger)

	app := api.New(api.Config{
		Env:           cfg.Env,
		Version:       version,
		SecureCookies: cfg.IsProduction(),
		SessionTTL:    time.Duration(cfg.JWT.ExpiryDays * float64(24*time.Hour)),
	}, api.Dependencies{
		Logger:   logger,
		Auth:     provider.NewAuthProvider(users, entities, tokens, confirmations, logger),
		Todos:    todos,
		Files:    provider.NewFileProvider(entities, objects, todos, logger),
		Tokens:   tokens,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     zap.NewStdLog(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("env", cfg.Env), zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped server")
	return nil
}

// openCache uses Redis when an address is configured and an in-process store
// otherwise.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-memory cache")
		memory := cache.NewMemoryStore(time.Minute)
		return memory, func() { _ = memory.Close() }, nil
	}
	client, err := cache.OpenRedis(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	return cache.NewRedisStore(client, cfg.Redis.Prefix), func() { _ = client.Close() }, nil
}
