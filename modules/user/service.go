package user

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
	"github.com/example/task-api/modules/cache"
)

// CreateInput carries the raw fields of a create request.
type CreateInput struct {
	Username validation.Field
	Email    validation.Field
}

// Service implements user business rules on top of the repository.
type Service struct {
	repo  *Repository
	cache atomic.Pointer[cache.Cache]
}

// NewService creates a user service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// SetCache enables read-through caching of users by ID.
func (s *Service) SetCache(c *cache.Cache) {
	s.cache.Store(c)
}

// Create validates the input and stores a new user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	errs := validation.New()

	if s.checkString(errs, "username", in.Username) {
		taken, err := s.repo.UsernameTaken(ctx, in.Username.Text())
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if taken {
			errs.Taken("username")
		}
	}

	if s.checkString(errs, "email", in.Email) && errs.Email("email", in.Email) {
		taken, err := s.repo.EmailTaken(ctx, in.Email.Text())
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if taken {
			errs.Taken("email")
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	user := &domain.User{
		Username: in.Username.Text(),
		Email:    in.Email.Text(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, s.duplicateError(ctx, user)
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// checkString applies the rules shared by username and email.
func (s *Service) checkString(errs *validation.Errors, name string, f validation.Field) bool {
	return errs.Required(name, f) &&
		errs.IsString(name, f) &&
		errs.MaxLength(name, f, validation.MaxStringLength)
}

// duplicateError pinpoints which unique field a concurrent insert claimed first.
func (s *Service) duplicateError(ctx context.Context, user *domain.User) error {
	errs := validation.New()
	if taken, err := s.repo.UsernameTaken(ctx, user.Username); err == nil && taken {
		errs.Taken("username")
	}
	if taken, err := s.repo.EmailTaken(ctx, user.Email); err == nil && taken {
		errs.Taken("email")
	}
	if errs.Empty() {
		errs.Taken("username")
	}
	return errs.Err()
}

// Get returns the user with the given ID.
func (s *Service) Get(ctx context.Context, id uint) (*domain.User, error) {
	load := func(ctx context.Context) (any, error) {
		return s.repo.FindByID(ctx, id)
	}

	var (
		user *domain.User
		err  error
	)
	if c := s.cache.Load(); c != nil {
		user = &domain.User{}
		err = c.Remember(ctx, cacheKey(id), user, load)
	} else {
		user, err = s.repo.FindByID(ctx, id)
	}

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// List returns one page of users, newest first, and the total count.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]domain.User, int64, error) {
	params = params.Normalize()

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	if params.Beyond(total) {
		return []domain.User{}, total, nil
	}
	users, err := s.repo.FindPage(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return users, total, nil
}

// Exists reports whether a user with the given ID exists.
func (s *Service) Exists(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return ok, nil
}

// GetMany returns the users with the given IDs, keyed by ID.
func (s *Service) GetMany(ctx context.Context, ids []uint) (map[uint]domain.User, error) {
	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make(map[uint]domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}
