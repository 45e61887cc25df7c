package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/task"
	"github.com/example/task-api/modules/database"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a task is not found.
	ErrNotFound = errors.New("task not found")
	// ErrUnknownOwner is returned when the owning user does not exist.
	ErrUnknownOwner = errors.New("task owner does not exist")
)

// newestFirst orders tasks by creation time with id as a stable tiebreak.
const newestFirst = "created_at DESC, id ASC"

// Filter restricts which tasks a query sees.
type Filter struct {
	// UserID limits results to one owner when non-nil.
	UserID *uint
}

// Repository provides access to task storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(task).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrUnknownOwner
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// FindPage returns one window of tasks matching filter, newest first.
func (r *Repository) FindPage(ctx context.Context, filter Filter, offset, limit int) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, min(limit, pagination.MaxLimit))
	err := r.scoped(ctx, filter).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of tasks matching filter.
func (r *Repository) Count(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// Update applies changes to a task and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, id uint, changes map[string]any) error {
	result := r.db.WithContext(ctx).Model(&domain.Task{ID: id}).Updates(changes)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a task.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scoped(ctx context.Context, filter Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.Task{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	return q
}
