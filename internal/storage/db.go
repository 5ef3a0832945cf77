// Package storage persists users, todos, tags and file metadata through GORM.
// Each request works on its own Manager, a unit of work that stages writes
// and commits them together on Save.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harlequingg/todo-api/internal/data"
)

// queryTimeout bounds every statement issued by a repository or by Save.
const queryTimeout = 5 * time.Second

type Config struct {
	DSN                string
	MaxOpenConnections int
	MaxIdleConnections int
	MaxIdleTime        time.Duration
}

// OpenDB opens a PostgreSQL pool and pings it.
func OpenDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Open wraps an open PostgreSQL pool in GORM.
func Open(sqlDB *sql.DB, l *zap.Logger) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), GormConfig(l))
}

// GormConfig routes GORM's slow query and error log to l and turns driver
// errors into GORM's portable errors, such as gorm.ErrDuplicatedKey.
func GormConfig(l *zap.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zap.NewStdLog(l), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&data.User{}, &data.Tag{}, &data.Todo{}, &data.FileMetadata{})
}
