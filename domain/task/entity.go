package task

import (
	"time"

	"github.com/example/task-api/domain/user"
)

// Status represents the state of a task. Any status may follow any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every accepted status value.
func Statuses() []string {
	return []string{string(StatusPending), string(StatusInProgress), string(StatusCompleted)}
}

// Task is a unit of work owned by a user.
type Task struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Status      Status    `gorm:"size:20;not null;default:pending" json:"status"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Owner only declares the foreign key for migrations; reads attach the
	// owner explicitly.
	Owner *user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}
