package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/task"
	domainuser "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
	"github.com/example/task-api/modules/database"
	"github.com/example/task-api/modules/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)          {}
func (m *mockLogger) Info(msg string, args ...any)           {}
func (m *mockLogger) Warn(msg string, args ...any)           {}
func (m *mockLogger) Error(msg string, args ...any)          {}
func (m *mockLogger) With(args ...any) types.Logger          { return m }
func (m *mockLogger) WithError(err error) types.Logger       { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// localUsers serves the user port straight from the user service.
type localUsers struct {
	svc *user.Service
}

func (u *localUsers) CreateUser(ctx context.Context, req user.CreateUserRequest) (*domainuser.User, error) {
	return u.svc.Create(ctx, user.CreateInput{Username: req.Username, Email: req.Email})
}

func (u *localUsers) GetUser(ctx context.Context, userID uint) (*domainuser.User, error) {
	return u.svc.Get(ctx, userID)
}

func (u *localUsers) ListUsers(ctx context.Context, params pagination.Params) ([]domainuser.User, pagination.Meta, error) {
	params = params.Normalize()
	users, total, err := u.svc.List(ctx, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return users, pagination.NewMeta(params, total), nil
}

func (u *localUsers) ValidateUser(ctx context.Context, userID uint) (bool, error) {
	return u.svc.Exists(ctx, userID)
}

func (u *localUsers) GetUsers(ctx context.Context, userIDs []uint) (map[uint]domainuser.User, error) {
	return u.svc.GetMany(ctx, userIDs)
}

// failingUsers simulates an unreachable user module.
type failingUsers struct {
	localUsers
}

func (u *failingUsers) ValidateUser(context.Context, uint) (bool, error) {
	return false, apperror.Internal(errors.New("user module unavailable"))
}

type fixture struct {
	db      *gorm.DB
	service *Service
	users   *localUsers
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	users := &localUsers{svc: user.NewService(user.NewRepository(db))}
	return &fixture{
		db:      db,
		service: NewService(NewRepository(db), users),
		users:   users,
	}
}

func (f *fixture) createUser(t *testing.T, name string) *domainuser.User {
	t.Helper()
	u, err := f.users.svc.Create(context.Background(), user.CreateInput{
		Username: validation.String(name),
		Email:    validation.String(name + "@example.com"),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) createTask(t *testing.T, title string, ownerID uint) *TaskView {
	t.Helper()
	view, err := f.service.Create(context.Background(), CreateInput{
		Title:  validation.String(title),
		UserID: validation.Field{Present: true, Value: fmt.Sprint(ownerID), Numeric: true},
	})
	require.NoError(t, err)
	return view
}

func ownerField(id uint) validation.Field {
	return validation.Field{Present: true, Value: fmt.Sprint(id), Numeric: true}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %v", err)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	return appErr.Fields
}

func countTasks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Task{}).Count(&n).Error)
	return n
}

func TestService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")

	view, err := f.service.Create(context.Background(), CreateInput{
		Title:       validation.String("  Write docs  "),
		Description: validation.String("   "),
		UserID:      validation.String(fmt.Sprint(owner.ID)),
	})
	require.NoError(t, err)

	assert.NotZero(t, view.ID)
	assert.Equal(t, "Write docs", view.Title)
	assert.Nil(t, view.Description)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, owner.ID, view.UserID)
	require.NotNil(t, view.User)
	assert.Equal(t, "alice", view.User.Username)
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")

	tests := []struct {
		name  string
		in    CreateInput
		field string
		msg   string
	}{
		{"missing title", CreateInput{UserID: ownerField(owner.ID)}, "title", "The title field is required."},
		{"numeric title", CreateInput{
			Title:  validation.Field{Present: true, Value: "5", Numeric: true},
			UserID: ownerField(owner.ID),
		}, "title", "The title field must be a string."},
		{"bad status", CreateInput{
			Title:  validation.String("t"),
			Status: validation.String("archived"),
			UserID: ownerField(owner.ID),
		}, "status", "The selected status is invalid."},
		{"null status", CreateInput{
			Title:  validation.String("t"),
			Status: validation.Null(),
			UserID: ownerField(owner.ID),
		}, "status", "The selected status is invalid."},
		{"missing user", CreateInput{Title: validation.String("t")}, "userId", "The user id field is required."},
		{"unknown user", CreateInput{Title: validation.String("t"), UserID: ownerField(999)}, "userId", "The selected user id is invalid."},
		{"non-numeric user", CreateInput{Title: validation.String("t"), UserID: validation.String("abc")}, "userId", "The selected user id is invalid."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), tt.in)
			require.Error(t, err)
			fields := validationFields(t, err)
			assert.Equal(t, []string{tt.msg}, fields[tt.field])
		})
	}

	assert.Zero(t, countTasks(t, f.db))
}

func TestService_CreateTitleTooLong(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")

	long := make([]rune, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err := f.service.Create(context.Background(), CreateInput{
		Title:  validation.String(string(long)),
		UserID: ownerField(owner.ID),
	})
	require.Error(t, err)
	assert.Equal(t,
		[]string{"The title field must not be greater than 255 characters."},
		validationFields(t, err)["title"])
}

func TestService_CreateReportsEveryField(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateInput{
		Status: validation.String("done"),
	})
	require.Error(t, err)

	fields := validationFields(t, err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "userId")
	assert.Zero(t, countTasks(t, f.db))
}

func TestService_CreateOwnerLookupFails(t *testing.T) {
	f := newFixture(t)
	f.service = NewService(NewRepository(f.db), &failingUsers{*f.users})

	_, err := f.service.Create(context.Background(), CreateInput{
		Title:  validation.String("t"),
		UserID: ownerField(1),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestService_GetNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, "Task not found", err.Error())
}

func TestService_ListPagination(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	for i := 1; i <= 15; i++ {
		f.createTask(t, fmt.Sprintf("task %d", i), owner.ID)
	}

	params := pagination.Params{Page: 2, Limit: 5}
	views, total, err := f.service.List(context.Background(), params, "")
	require.NoError(t, err)
	assert.Len(t, views, 5)
	assert.Equal(t, int64(15), total)
	assert.Equal(t, pagination.Meta{Page: 2, Limit: 5, Total: 15, TotalPages: 3}, pagination.NewMeta(params, total))

	views, _, err = f.service.List(context.Background(), pagination.Params{Page: 4, Limit: 5}, "")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestService_ListPagesPartitionTasks(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	for i := 1; i <= 7; i++ {
		f.createTask(t, fmt.Sprintf("task %d", i), owner.ID)
	}

	seen := make(map[uint]bool)
	for page := 1; page <= 3; page++ {
		views, total, err := f.service.List(context.Background(), pagination.Params{Page: page, Limit: 3}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		for _, v := range views {
			assert.False(t, seen[v.ID], "task %d listed twice", v.ID)
			seen[v.ID] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestService_ListNewestFirstWithOwners(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	base := time.Now().Add(-time.Hour)
	for i, owner := range []uint{alice.ID, bob.ID, alice.ID} {
		task := domain.Task{
			Title:     fmt.Sprintf("task %d", i),
			Status:    domain.StatusPending,
			UserID:    owner,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.db.Omit("Owner").Create(&task).Error)
	}

	views, _, err := f.service.List(context.Background(), pagination.Params{}, "")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "task 2", views[0].Title)
	assert.Equal(t, "task 0", views[2].Title)
	for _, v := range views {
		require.NotNil(t, v.User)
		assert.Equal(t, v.UserID, v.User.ID)
	}
}

func TestService_ListTiesBreakByAscendingID(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")

	same := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		task := domain.Task{
			Title:     fmt.Sprintf("task %d", i),
			Status:    domain.StatusPending,
			UserID:    owner.ID,
			CreatedAt: same,
		}
		require.NoError(t, f.db.Omit("Owner").Create(&task).Error)
	}
	newer := domain.Task{Title: "newest", Status: domain.StatusPending, UserID: owner.ID, CreatedAt: same.Add(time.Minute)}
	require.NoError(t, f.db.Omit("Owner").Create(&newer).Error)

	var ids []uint
	for page := 1; page <= 3; page++ {
		views, total, err := f.service.List(context.Background(), pagination.Params{Page: page, Limit: 2}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		for _, v := range views {
			ids = append(ids, v.ID)
		}
	}
	assert.Equal(t, []uint{newer.ID, 1, 2, 3, 4, 5}, ids)
}

func TestService_ListOversizedLimit(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	for i := 1; i <= 3; i++ {
		f.createTask(t, fmt.Sprintf("task %d", i), owner.ID)
	}

	params := pagination.Parse("1", "9223372036854775807")
	views, total, err := f.service.List(context.Background(), params, "")
	require.NoError(t, err)
	assert.Len(t, views, 3)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, pagination.MaxLimit, pagination.NewMeta(params, total).Limit)

	views, _, err = f.service.List(context.Background(), pagination.Params{Page: 1, Limit: 100000000}, "")
	require.NoError(t, err)
	assert.Len(t, views, 3)
}

func TestService_ListPageFarBeyondEnd(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	f.createTask(t, "only", owner.ID)

	views, total, err := f.service.List(context.Background(), pagination.Parse("9223372036854775807", "10"), "")
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, int64(1), total)
}

func TestService_ListFilterByOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	f.createTask(t, "a1", alice.ID)
	f.createTask(t, "b1", bob.ID)
	f.createTask(t, "a2", alice.ID)

	views, total, err := f.service.List(context.Background(), pagination.Params{}, fmt.Sprint(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, v := range views {
		assert.Equal(t, alice.ID, v.UserID)
	}

	views, total, err = f.service.List(context.Background(), pagination.Params{}, "not-a-number")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)

	views, total, err = f.service.List(context.Background(), pagination.Params{}, "999")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)
}

func TestService_UpdatePartial(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created, err := f.service.Create(context.Background(), CreateInput{
		Title:       validation.String("original"),
		Description: validation.String("keep me"),
		UserID:      ownerField(owner.ID),
	})
	require.NoError(t, err)

	updated, changed, err := f.service.Update(context.Background(), created.ID, UpdateInput{
		Status: validation.String("completed"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, changed)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "original", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "keep me", *updated.Description)
	assert.Equal(t, owner.ID, updated.UserID)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())
	require.NotNil(t, updated.User)
}

func TestService_UpdateClearsDescription(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created, err := f.service.Create(context.Background(), CreateInput{
		Title:       validation.String("t"),
		Description: validation.String("notes"),
		UserID:      ownerField(owner.ID),
	})
	require.NoError(t, err)

	updated, changed, err := f.service.Update(context.Background(), created.ID, UpdateInput{
		Description: validation.Null(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"description"}, changed)
	assert.Nil(t, updated.Description)

	got, err := f.service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
}

func TestService_UpdateNothingChanged(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created := f.createTask(t, "same", owner.ID)

	before, err := f.service.Get(context.Background(), created.ID)
	require.NoError(t, err)

	updated, changed, err := f.service.Update(context.Background(), created.ID, UpdateInput{
		Title: validation.String("same"),
	})
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.True(t, before.UpdatedAt.Equal(updated.UpdatedAt))

	_, changed, err = f.service.Update(context.Background(), created.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestService_UpdateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created := f.createTask(t, "original", owner.ID)

	_, _, err := f.service.Update(context.Background(), created.ID, UpdateInput{
		Title:  validation.String("renamed"),
		Status: validation.String("archived"),
	})
	require.Error(t, err)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "status")

	got, err := f.service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
	assert.Equal(t, "pending", got.Status)
}

func TestService_UpdateRejectsBlankTitle(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created := f.createTask(t, "original", owner.ID)

	_, _, err := f.service.Update(context.Background(), created.ID, UpdateInput{
		Title: validation.String("   "),
	})
	require.Error(t, err)
	assert.Equal(t, []string{"The title field is required."}, validationFields(t, err)["title"])
}

func TestService_UpdateMissingTaskWinsOverValidation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.Update(context.Background(), 404, UpdateInput{
		Status: validation.String("archived"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice")
	created := f.createTask(t, "doomed", owner.ID)

	deleted, err := f.service.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = f.service.Get(context.Background(), created.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Delete(context.Background(), created.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRepository_RejectsUnknownOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	err := repo.Create(context.Background(), &domain.Task{Title: "orphan", Status: domain.StatusPending, UserID: 12345})
	assert.ErrorIs(t, err, ErrUnknownOwner)
}

func TestRepository_UpdateAndDeleteMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	assert.ErrorIs(t, repo.Update(context.Background(), 9, map[string]any{"title": "x"}), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 9), ErrNotFound)
	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
