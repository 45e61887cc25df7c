package task

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/task"
	domainuser "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
	"github.com/example/task-api/modules/user"
)

// CreateInput carries the raw fields of a create request.
type CreateInput struct {
	Title       validation.Field
	Description validation.Field
	Status      validation.Field
	UserID      validation.Field
}

// UpdateInput carries the raw fields of a partial update. Absent fields are left untouched.
type UpdateInput struct {
	Title       validation.Field
	Description validation.Field
	Status      validation.Field
}

// Service implements task business rules. Owners are resolved through the user port.
type Service struct {
	repo  *Repository
	users user.UserPort
}

// NewService creates a task service.
func NewService(repo *Repository, users user.UserPort) *Service {
	return &Service{repo: repo, users: users}
}

// Create validates the input, stores a new task and returns it with its owner.
func (s *Service) Create(ctx context.Context, in CreateInput) (*TaskView, error) {
	errs := validation.New()

	checkTitle(errs, in.Title)
	checkDescription(errs, in.Description)
	if in.Status.Present {
		errs.OneOf("status", in.Status, domain.Statuses()...)
	}

	var ownerID uint
	if errs.Required("userId", in.UserID) {
		if id, ok := errs.ID("userId", in.UserID); ok {
			exists, err := s.users.ValidateUser(ctx, id)
			if err != nil {
				return nil, err
			}
			if !exists {
				errs.Invalid("userId")
			}
			ownerID = id
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	status := domain.StatusPending
	if in.Status.Present {
		status = domain.Status(in.Status.Text())
	}
	task := &domain.Task{
		Title:       in.Title.Text(),
		Description: in.Description.Ptr(),
		Status:      status,
		UserID:      ownerID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		if errors.Is(err, ErrUnknownOwner) {
			errs.Invalid("userId")
			return nil, errs.Err()
		}
		return nil, apperror.Internal(err)
	}

	return s.view(ctx, task)
}

// Get returns the task with the given ID and its owner.
func (s *Service) Get(ctx context.Context, id uint) (*TaskView, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

// List returns one page of tasks, newest first, with owners attached.
// A non-empty ownerFilter that is not a valid id matches no tasks.
func (s *Service) List(ctx context.Context, params pagination.Params, ownerFilter string) ([]TaskView, int64, error) {
	params = params.Normalize()

	var filter Filter
	if raw := strings.TrimSpace(ownerFilter); raw != "" {
		id, ok := validation.ParseID(raw)
		if !ok {
			return []TaskView{}, 0, nil
		}
		filter.UserID = &id
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	if params.Beyond(total) {
		return []TaskView{}, total, nil
	}
	tasks, err := s.repo.FindPage(ctx, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	views, err := s.attachOwners(ctx, tasks)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Update applies the supplied fields to a task. Either every supplied field is
// applied or none is. It returns the merged task and the names of changed fields.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*TaskView, []string, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	errs := validation.New()
	if in.Title.Present {
		checkTitle(errs, in.Title)
	}
	if in.Description.Present {
		checkDescription(errs, in.Description)
	}
	if in.Status.Present {
		errs.OneOf("status", in.Status, domain.Statuses()...)
	}
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	changes := make(map[string]any)
	if in.Title.Present && in.Title.Text() != task.Title {
		changes["title"] = in.Title.Text()
	}
	if in.Description.Present {
		if desc := in.Description.Ptr(); !equalPtr(desc, task.Description) {
			changes["description"] = desc
		}
	}
	if in.Status.Present && domain.Status(in.Status.Text()) != task.Status {
		changes["status"] = in.Status.Text()
	}

	if len(changes) == 0 {
		view, err := s.view(ctx, task)
		return view, nil, err
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, apperror.NotFound("Task not found")
		}
		return nil, nil, apperror.Internal(err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	view, err := s.view(ctx, updated)
	if err != nil {
		return nil, nil, err
	}

	changed := make([]string, 0, len(changes))
	for field := range changes {
		changed = append(changed, field)
	}
	slices.Sort(changed)
	return view, changed, nil
}

// Delete permanently removes a task and returns what was removed.
func (s *Service) Delete(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Task not found")
		}
		return nil, apperror.Internal(err)
	}
	return task, nil
}

func (s *Service) find(ctx context.Context, id uint) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound("Task not found")
		}
		return nil, apperror.Internal(err)
	}
	return task, nil
}

func (s *Service) view(ctx context.Context, task *domain.Task) (*TaskView, error) {
	views, err := s.attachOwners(ctx, []domain.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// attachOwners loads every distinct owner in one call and joins them onto the tasks.
func (s *Service) attachOwners(ctx context.Context, tasks []domain.Task) ([]TaskView, error) {
	views := make([]TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		if !slices.Contains(ids, t.UserID) {
			ids = append(ids, t.UserID)
		}
	}

	owners, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		var owner *domainuser.User
		if u, ok := owners[t.UserID]; ok {
			owner = &u
		}
		views = append(views, newTaskView(t, owner))
	}
	return views, nil
}

func checkTitle(errs *validation.Errors, f validation.Field) {
	_ = errs.Required("title", f) &&
		errs.IsString("title", f) &&
		errs.MaxLength("title", f, validation.MaxStringLength)
}

func checkDescription(errs *validation.Errors, f validation.Field) {
	errs.IsString("description", f)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
