package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	"github.com/example/task-api/events"
	"github.com/example/task-api/modules/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// TaskModule provides task management services (core domain).
type TaskModule struct {
	repo     *Repository
	service  *Service
	userPort user.UserPort
	eventBus mono.EventBus
	logger   types.Logger
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventBusAwareModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule on the shared database.
func NewModule(db *gorm.DB, logger types.Logger) *TaskModule {
	return &TaskModule{
		repo:   NewRepository(db),
		logger: logger,
	}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) Dependencies() []string {
	return []string{"user"}
}

func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "user" {
		m.userPort = user.NewUserAdapter(container)
	}
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "create-task, get-task, update-task, delete-task, list-tasks")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	if m.userPort == nil {
		return fmt.Errorf("userPort dependency not set")
	}
	m.service = NewService(m.repo, m.userPort)
	if m.eventBus == nil {
		m.logger.Warn("eventBus not set, events will not be published")
	}
	m.logger.Info("Task module started", "dependsOn", "user")
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	m.logger.Info("Task module stopped")
	return nil
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	view, err := m.service.Create(ctx, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		UserID:      req.UserID,
	})
	if err != nil {
		return TaskResponse{Error: m.payload("create-task", err)}, nil
	}

	m.publish("TaskCreated", view.ID, func(bus mono.EventBus) error {
		return events.TaskCreatedV1.Publish(bus, events.TaskCreatedEvent{
			TaskID:    view.ID,
			Title:     view.Title,
			Status:    view.Status,
			UserID:    view.UserID,
			CreatedAt: view.CreatedAt,
		}, nil)
	})

	return TaskResponse{Task: view}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	view, err := m.service.Get(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{Error: m.payload("get-task", err)}, nil
	}
	return TaskResponse{Task: view}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	params := pagination.Params{Page: req.Page, Limit: req.Limit}.Normalize()

	views, total, err := m.service.List(ctx, params, req.UserID)
	if err != nil {
		return ListTasksResponse{Error: m.payload("list-tasks", err)}, nil
	}
	return ListTasksResponse{
		Tasks:      views,
		Pagination: pagination.NewMeta(params, total),
	}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	view, changed, err := m.service.Update(ctx, req.TaskID, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return TaskResponse{Error: m.payload("update-task", err)}, nil
	}

	if len(changed) > 0 {
		m.publish("TaskUpdated", view.ID, func(bus mono.EventBus) error {
			return events.TaskUpdatedV1.Publish(bus, events.TaskUpdatedEvent{
				TaskID:    view.ID,
				UserID:    view.UserID,
				Changed:   changed,
				Status:    view.Status,
				UpdatedAt: view.UpdatedAt,
			}, nil)
		})
	}

	return TaskResponse{Task: view}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	deleted, err := m.service.Delete(ctx, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{Error: m.payload("delete-task", err)}, nil
	}

	m.publish("TaskDeleted", deleted.ID, func(bus mono.EventBus) error {
		return events.TaskDeletedV1.Publish(bus, events.TaskDeletedEvent{
			TaskID:    deleted.ID,
			UserID:    deleted.UserID,
			DeletedAt: time.Now(),
		}, nil)
	})

	return DeleteTaskResponse{Deleted: true}, nil
}

// publish emits an event; publishing is best-effort and never fails the operation.
func (m *TaskModule) publish(name string, taskID uint, send func(mono.EventBus) error) {
	if m.eventBus == nil {
		return
	}
	if err := send(m.eventBus); err != nil {
		m.logger.Warn("Failed to publish event", "event", name, "taskID", taskID, "error", err)
	}
}

// payload logs internal failures and converts err to its wire form.
func (m *TaskModule) payload(service string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
	return apperror.ToPayload(err)
}
