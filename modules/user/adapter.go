package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// UserPort defines the user operations other modules may call.
// Errors are *apperror.Error values.
type UserPort interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	GetUser(ctx context.Context, userID uint) (*domain.User, error)
	ListUsers(ctx context.Context, params pagination.Params) ([]domain.User, pagination.Meta, error)
	ValidateUser(ctx context.Context, userID uint) (bool, error)
	GetUsers(ctx context.Context, userIDs []uint) (map[uint]domain.User, error)
}

// userAdapter wraps ServiceContainer for type-safe cross-module communication.
type userAdapter struct {
	container mono.ServiceContainer
}

// NewUserAdapter creates a new adapter for user services.
// container is the ServiceContainer from the user module received via SetDependencyServiceContainer.
func NewUserAdapter(container mono.ServiceContainer) UserPort {
	if container == nil {
		panic("user adapter requires non-nil ServiceContainer")
	}
	return &userAdapter{container: container}
}

// CreateUser creates a user via the create-user service.
func (a *userAdapter) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	var resp UserResponse
	if err := call(ctx, a.container, "create-user", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// GetUser retrieves a user by ID via the get-user service.
func (a *userAdapter) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := call(ctx, a.container, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ListUsers retrieves one page of users via the list-users service.
func (a *userAdapter) ListUsers(ctx context.Context, params pagination.Params) ([]domain.User, pagination.Meta, error) {
	req := ListUsersRequest{Page: params.Page, Limit: params.Limit}
	var resp ListUsersResponse
	if err := call(ctx, a.container, "list-users", &req, &resp); err != nil {
		return nil, pagination.Meta{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, pagination.Meta{}, err
	}
	return resp.Users, resp.Pagination, nil
}

// ValidateUser checks if a user exists via the validate-user service.
func (a *userAdapter) ValidateUser(ctx context.Context, userID uint) (bool, error) {
	req := ValidateUserRequest{UserID: userID}
	var resp ValidateUserResponse
	if err := call(ctx, a.container, "validate-user", &req, &resp); err != nil {
		return false, err
	}
	if err := resp.Error.Err(); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// GetUsers retrieves several users at once via the get-users service.
func (a *userAdapter) GetUsers(ctx context.Context, userIDs []uint) (map[uint]domain.User, error) {
	req := GetUsersRequest{UserIDs: userIDs}
	var resp GetUsersResponse
	if err := call(ctx, a.container, "get-users", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	users := make(map[uint]domain.User, len(resp.Users))
	for _, u := range resp.Users {
		users[u.ID] = u
	}
	return users, nil
}

// call performs a request-reply round trip; transport failures are internal errors.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperror.Internal(fmt.Errorf("%s service call failed: %w", service, err))
	}
	return nil
}
