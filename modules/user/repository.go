package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/modules/database"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a user is not found.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a username or email is already stored.
	ErrDuplicate = errors.New("user already exists")
)

// newestFirst orders users by creation time with id as a stable tiebreak.
const newestFirst = "created_at DESC, id ASC"

// Repository provides access to user storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by its ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// FindByIDs retrieves every user whose ID is listed. Unknown IDs are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	users := make([]domain.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return users, nil
}

// FindPage returns one window of users, newest first.
func (r *Repository) FindPage(ctx context.Context, offset, limit int) ([]domain.User, error) {
	users := make([]domain.User, 0, min(limit, pagination.MaxLimit))
	err := r.db.WithContext(ctx).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Count returns the number of stored users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// Exists reports whether a user with the given ID is stored.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	return r.existsWhere(ctx, "id = ?", id)
}

// UsernameTaken reports whether username is already stored (exact match).
func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.existsWhere(ctx, "username = ?", username)
}

// EmailTaken reports whether email is already stored (exact match).
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.existsWhere(ctx, "email = ?", email)
}

func (r *Repository) existsWhere(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to query users: %w", err)
	}
	return count > 0, nil
}
