package user

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/events"
	"github.com/example/task-api/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// UserModule provides user management services.
type UserModule struct {
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*UserModule)(nil)
var _ mono.ServiceProviderModule = (*UserModule)(nil)
var _ mono.EventBusAwareModule = (*UserModule)(nil)
var _ mono.EventEmitterModule = (*UserModule)(nil)

// NewModule creates a new UserModule on the shared database.
func NewModule(db *gorm.DB, logger types.Logger) *UserModule {
	return &UserModule{
		service: NewService(NewRepository(db)),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *UserModule) Name() string {
	return "user"
}

// SetCache enables the Redis read-through cache for get-user.
func (m *UserModule) SetCache(c *cache.Cache) {
	m.service.SetCache(c)
	m.logger.Info("User cache enabled")
}

// SetEventBus receives the EventBus from the framework.
func (m *UserModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *UserModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserCreatedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *UserModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-user", json.Unmarshal, json.Marshal, m.createUser,
	); err != nil {
		return fmt.Errorf("failed to register create-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.getUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-users", json.Unmarshal, json.Marshal, m.listUsers,
	); err != nil {
		return fmt.Errorf("failed to register list-users service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-user", json.Unmarshal, json.Marshal, m.validateUser,
	); err != nil {
		return fmt.Errorf("failed to register validate-user service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-users", json.Unmarshal, json.Marshal, m.getUsers,
	); err != nil {
		return fmt.Errorf("failed to register get-users service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "create-user, get-user, list-users, validate-user, get-users")
	return nil
}

// createUser handles the create-user service request.
func (m *UserModule) createUser(ctx context.Context, req CreateUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Create(ctx, CreateInput{Username: req.Username, Email: req.Email})
	if err != nil {
		return UserResponse{Error: m.payload("create-user", err)}, nil
	}

	if m.eventBus != nil {
		event := events.UserCreatedEvent{
			UserID:    user.ID,
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		}
		if err := events.UserCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish UserCreated event", "userID", user.ID, "error", err)
		}
	}

	return UserResponse{User: user}, nil
}

// getUser handles the get-user service request.
func (m *UserModule) getUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Get(ctx, req.UserID)
	if err != nil {
		return UserResponse{Error: m.payload("get-user", err)}, nil
	}
	return UserResponse{User: user}, nil
}

// listUsers handles the list-users service request.
func (m *UserModule) listUsers(ctx context.Context, req ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	params := pagination.Params{Page: req.Page, Limit: req.Limit}.Normalize()

	users, total, err := m.service.List(ctx, params)
	if err != nil {
		return ListUsersResponse{Error: m.payload("list-users", err)}, nil
	}
	return ListUsersResponse{
		Users:      users,
		Pagination: pagination.NewMeta(params, total),
	}, nil
}

// validateUser handles the validate-user service request.
func (m *UserModule) validateUser(ctx context.Context, req ValidateUserRequest, _ *mono.Msg) (ValidateUserResponse, error) {
	ok, err := m.service.Exists(ctx, req.UserID)
	if err != nil {
		return ValidateUserResponse{Error: m.payload("validate-user", err)}, nil
	}
	return ValidateUserResponse{Valid: ok}, nil
}

// getUsers handles the get-users service request.
func (m *UserModule) getUsers(ctx context.Context, req GetUsersRequest, _ *mono.Msg) (GetUsersResponse, error) {
	found, err := m.service.GetMany(ctx, req.UserIDs)
	if err != nil {
		return GetUsersResponse{Error: m.payload("get-users", err)}, nil
	}
	resp := GetUsersResponse{Users: make([]domain.User, 0, len(found))}
	for _, u := range found {
		resp.Users = append(resp.Users, u)
	}
	return resp, nil
}

// payload logs internal failures and converts err to its wire form.
func (m *UserModule) payload(service string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
	return apperror.ToPayload(err)
}

// Start initializes the module.
func (m *UserModule) Start(_ context.Context) error {
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}
	m.logger.Info("User module started")
	return nil
}

// Stop shuts down the module.
func (m *UserModule) Stop(_ context.Context) error {
	m.logger.Info("User module stopped")
	return nil
}
