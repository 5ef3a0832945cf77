// Package data holds the persisted entities. JSON tags describe the cache
// encoding, which keeps every column; clients never see these structs
// directly.
package data

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLength = 60
	MaxTagNameLength  = 10
)

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username         string    `gorm:"size:60;uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"not null" json:"password_hash"`
	IsEmailConfirmed bool      `gorm:"not null;default:false" json:"is_email_confirmed"`
	CreateDate       time.Time `json:"create_date"`
	UpdateDate       time.Time `json:"update_date"`
	Todos            []Todo    `gorm:"constraint:OnDelete:CASCADE" json:"todos,omitempty"`
}

type Todo struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name               string         `gorm:"not null;index" json:"name"`
	Notes              *string        `json:"notes,omitempty"`
	DifficultyLevel    *int           `json:"difficulty_level,omitempty"`
	MultimediaFilePath *string        `json:"multimedia_file_path,omitempty"`
	CompletedOn        *time.Time     `json:"completed_on,omitempty"`
	CreateDate         time.Time      `json:"create_date"`
	UpdateDate         time.Time      `json:"update_date"`
	Tags               []Tag          `gorm:"many2many:todo_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Files              []FileMetadata `gorm:"foreignKey:AttachedTodoID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// IsCompleted reports whether the todo carries a completion timestamp.
func (t *Todo) IsCompleted() bool {
	return t.CompletedOn != nil
}

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:10;not null" json:"name"`
}

// FileMetadata describes an object attached to a todo.
type FileMetadata struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttachedTodoID uuid.UUID `gorm:"type:uuid;not null;index" json:"attached_todo_id"`
	Filename       string    `gorm:"not null" json:"filename"`
	Filetype       string    `gorm:"not null" json:"filetype"`
	Filesize       int64     `json:"filesize"`
	Filepath       string    `gorm:"not null" json:"filepath"`
	CreateDate     time.Time `json:"create_date"`
	UpdateDate     time.Time `json:"update_date"`
}
