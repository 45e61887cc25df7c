package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/task-api/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

const (
	// DefaultCapacity is how many entries the feed keeps.
	DefaultCapacity = 500
	// DefaultLimit is how many entries a listing returns when no limit is given.
	DefaultLimit = 20
)

// Entry is one recorded domain event.
type Entry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	ResourceID uint      `json:"resource_id"`
	UserID     uint      `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActivityModule records user and task events into a bounded feed.
// It subscribes to domain events using the EventConsumerModule interface.
type ActivityModule struct {
	capacity int
	entries  []Entry
	mu       sync.RWMutex
	logger   types.Logger
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an ActivityModule keeping at most capacity entries.
func NewModule(capacity int, logger types.Logger) *ActivityModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ActivityModule{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		logger:   logger,
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserCreatedV1, m.handleUserCreated, m); err != nil {
		return fmt.Errorf("failed to register UserCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", "UserCreated, TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	return nil
}

func (m *ActivityModule) handleUserCreated(_ context.Context, event events.UserCreatedEvent, _ *mono.Msg) error {
	m.record("user_created", event.UserID, event.UserID,
		fmt.Sprintf("User '%s' registered", event.Username))
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record("task_created", event.TaskID, event.UserID,
		fmt.Sprintf("New task '%s' created for user %d", event.Title, event.UserID))
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record("task_updated", event.TaskID, event.UserID,
		fmt.Sprintf("Task %d updated: %s", event.TaskID, strings.Join(event.Changed, ", ")))
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record("task_deleted", event.TaskID, event.UserID,
		fmt.Sprintf("Task %d deleted", event.TaskID))
	return nil
}

// record appends an entry, dropping the oldest once the feed is full.
func (m *ActivityModule) record(kind string, resourceID, userID uint, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == m.capacity {
		copy(m.entries, m.entries[1:])
		m.entries = m.entries[:len(m.entries)-1]
	}
	m.entries = append(m.entries, Entry{
		ID:         uuid.NewString(),
		Type:       kind,
		Message:    message,
		ResourceID: resourceID,
		UserID:     userID,
		Timestamp:  time.Now(),
	})
	m.logger.Debug("Recorded activity", "type", kind, "resourceID", resourceID)
}

// Recent returns up to limit entries, newest first.
func (m *ActivityModule) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, len(m.entries))

	result := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

// listActivity handles the list-activity service request.
func (m *ActivityModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	return ListActivityResponse{Entries: m.Recent(req.Limit)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Activity module started, listening for user and task events", "capacity", m.capacity)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped")
	return nil
}
