package user

import (
	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
)

// CreateUserRequest is the request for creating a user.
type CreateUserRequest struct {
	Username validation.Field `json:"username"`
	Email    validation.Field `json:"email"`
}

// GetUserRequest is the request for getting a user.
type GetUserRequest struct {
	UserID uint `json:"user_id"`
}

// UserResponse is the response carrying a single user.
type UserResponse struct {
	User  *domain.User      `json:"user,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// ListUsersRequest is the request for listing users.
type ListUsersRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ListUsersResponse is the response containing one page of users.
type ListUsersResponse struct {
	Users      []domain.User     `json:"users"`
	Pagination pagination.Meta   `json:"pagination"`
	Error      *apperror.Payload `json:"error,omitempty"`
}

// ValidateUserRequest is the request for validating a user.
type ValidateUserRequest struct {
	UserID uint `json:"user_id"`
}

// ValidateUserResponse is the response for validating a user.
type ValidateUserResponse struct {
	Valid bool              `json:"valid"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// GetUsersRequest is the request for fetching several users at once.
type GetUsersRequest struct {
	UserIDs []uint `json:"user_ids"`
}

// GetUsersResponse is the response for fetching several users at once.
type GetUsersResponse struct {
	Users []domain.User     `json:"users"`
	Error *apperror.Payload `json:"error,omitempty"`
}
