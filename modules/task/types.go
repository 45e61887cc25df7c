package task

import (
	"context"
	"time"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/task"
	domainuser "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
)

// TaskView is a task with its owning user attached.
type TaskView struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      string           `json:"status"`
	UserID      uint             `json:"user_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	User        *domainuser.User `json:"user"`
}

func newTaskView(t domain.Task, owner *domainuser.User) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		User:        owner,
	}
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Title       validation.Field `json:"title"`
	Description validation.Field `json:"description"`
	Status      validation.Field `json:"status"`
	UserID      validation.Field `json:"user_id"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// UpdateTaskRequest is the request for partially updating a task.
type UpdateTaskRequest struct {
	TaskID      uint             `json:"task_id"`
	Title       validation.Field `json:"title"`
	Description validation.Field `json:"description"`
	Status      validation.Field `json:"status"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID uint `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool              `json:"deleted"`
	Error   *apperror.Payload `json:"error,omitempty"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	// UserID is the raw owner filter; empty means all owners.
	UserID string `json:"user_id,omitempty"`
}

// ListTasksResponse is the response containing one page of tasks.
type ListTasksResponse struct {
	Tasks      []TaskView        `json:"tasks"`
	Pagination pagination.Meta   `json:"pagination"`
	Error      *apperror.Payload `json:"error,omitempty"`
}

// TaskResponse is the response carrying a single task.
type TaskResponse struct {
	Task  *TaskView         `json:"task,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// TaskPort defines the task operations driving adapters use.
// Errors are *apperror.Error values.
type TaskPort interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskView, error)
	GetTask(ctx context.Context, taskID uint) (*TaskView, error)
	ListTasks(ctx context.Context, req ListTasksRequest) ([]TaskView, pagination.Meta, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskView, error)
	DeleteTask(ctx context.Context, taskID uint) error
}
