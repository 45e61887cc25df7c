package api

import (
	"github.com/example/task-api/domain/pagination"
	domainuser "github.com/example/task-api/domain/user"
	"github.com/example/task-api/modules/activity"
	"github.com/example/task-api/modules/task"
)

// ErrorResponse is the body of 404 and 500 responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the body of 422 responses.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// MessageResponse is the body of responses that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserListResponse is one page of users.
type UserListResponse struct {
	Data       []domainuser.User `json:"data"`
	Pagination pagination.Meta   `json:"pagination"`
}

// TaskListResponse is one page of tasks with their owners.
type TaskListResponse struct {
	Data       []task.TaskView `json:"data"`
	Pagination pagination.Meta `json:"pagination"`
}

// ActivityResponse is the most recent part of the activity feed.
type ActivityResponse struct {
	Data []activity.Entry `json:"data"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules,omitempty"`
}

// ModuleHealth is the health of one module.
type ModuleHealth struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
