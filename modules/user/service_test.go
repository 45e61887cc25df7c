package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/task-api/domain/apperror"
	"github.com/example/task-api/domain/pagination"
	domain "github.com/example/task-api/domain/user"
	"github.com/example/task-api/domain/validation"
	"github.com/example/task-api/modules/cache"
	"github.com/example/task-api/modules/database"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
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

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(NewRepository(db)), db
}

func createInput(username, email string) CreateInput {
	return CreateInput{Username: validation.String(username), Email: validation.String(email)}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %v", err)
	require.Equal(t, apperror.KindValidation, appErr.Kind)
	return appErr.Fields
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createInput("  testuser ", "test@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "testuser", created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Username, got.Username)
	assert.Equal(t, created.Email, got.Email)
}

func TestService_CreateValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
		want  map[string][]string
	}{
		{
			name:  "missing fields",
			input: CreateInput{},
			want: map[string][]string{
				"username": {"The username field is required."},
				"email":    {"The email field is required."},
			},
		},
		{
			name:  "blank username and bad email",
			input: createInput("   ", "not-an-email"),
			want: map[string][]string{
				"username": {"The username field is required."},
				"email":    {"The email field must be a valid email address."},
			},
		},
		{
			name: "non-string username",
			input: CreateInput{
				Username: validation.Field{Present: true, Value: "42", Numeric: true},
				Email:    validation.String("n@example.com"),
			},
			want: map[string][]string{"username": {"The username field must be a string."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			assert.Equal(t, tt.want, validationFields(t, err))
		})
	}

	var count int64
	require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
	assert.Zero(t, count, "validation failures must not write")
}

func TestService_CreateUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createInput("alice", "ALICE2@example.com"))
	assert.Equal(t, map[string][]string{"username": {"The username has already been taken."}}, validationFields(t, err))

	_, err = svc.Create(ctx, createInput("Bob", "alice@example.com"))
	assert.Equal(t, map[string][]string{"email": {"The email has already been taken."}}, validationFields(t, err))

	// Uniqueness is an exact match.
	_, err = svc.Create(ctx, createInput("ALICE", "other@example.com"))
	assert.NoError(t, err)
}

func TestService_CreateLostRace(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Insert directly so the pre-flight check is bypassed by the unique index.
	require.NoError(t, db.Create(&domain.User{Username: "racer", Email: "racer@example.com"}).Error)

	err := svc.repo.Create(ctx, &domain.User{Username: "racer", Email: "new@example.com"})
	require.ErrorIs(t, err, ErrDuplicate)

	dupErr := svc.duplicateError(ctx, &domain.User{Username: "racer", Email: "new@example.com"})
	assert.Equal(t, map[string][]string{"username": {"The username has already been taken."}}, validationFields(t, dupErr))
}

func TestService_GetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, "User not found", err.Error())
}

func TestService_ListNewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		u := &domain.User{
			Username:  fmt.Sprintf("user%d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			CreatedAt: base.Add(time.Duration(i/2) * time.Hour), // pairs share a timestamp
		}
		require.NoError(t, db.Create(u).Error)
	}

	var seen []uint
	for page := 1; page <= 3; page++ {
		users, total, err := svc.List(ctx, pagination.Params{Page: page, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		for _, u := range users {
			seen = append(seen, u.ID)
		}
	}
	// user6 is newest; ties on created_at break by ascending id.
	assert.Equal(t, []uint{7, 5, 6, 3, 4, 1, 2}, seen)

	users, total, err := svc.List(ctx, pagination.Params{Page: 5, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, int64(7), total)
}

func TestService_ListExtremePaging(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, createInput("alice", "alice@example.com"))
	require.NoError(t, err)

	users, total, err := svc.List(ctx, pagination.Parse("1", "9223372036854775807"))
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(1), total)

	users, total, err = svc.List(ctx, pagination.Parse("9223372036854775807", "10"))
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, int64(1), total)
}

func TestService_ExistsAndGetMany(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, createInput("a", "a@example.com"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, createInput("b", "b@example.com"))
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	users, err := svc.GetMany(ctx, []uint{a.ID, b.ID, 404})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "b", users[b.ID].Username)

	users, err = svc.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestService_GetThroughCache(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, "test:", time.Minute)
	svc.SetCache(c)

	created, err := svc.Create(ctx, createInput("cached", "cached@example.com"))
	require.NoError(t, err)

	first, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(fmt.Sprintf("test:user:%d", created.ID)))

	// Served from Redis even after the row changes underneath.
	require.NoError(t, db.Model(&domain.User{}).Where("id = ?", created.ID).Update("username", "changed").Error)
	second, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Username, second.Username)
	assert.Equal(t, uint64(1), c.GetStats().Hits)

	_, err = svc.Get(ctx, 12345)
	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, mr.Exists("test:user:12345"))
}
