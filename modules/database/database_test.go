package database

import (
	"context"
	"errors"
	"testing"

	domaintask "github.com/example/task-api/domain/task"
	domainuser "github.com/example/task-api/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestOpen_MigratesSchema(t *testing.T) {
	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.True(t, db.Migrator().HasTable(&domainuser.User{}))
	assert.True(t, db.Migrator().HasTable(&domaintask.Task{}))
	assert.True(t, db.Migrator().HasIndex(&domainuser.User{}, "Username"))
	assert.True(t, db.Migrator().HasIndex(&domainuser.User{}, "Email"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestConstraintViolations(t *testing.T) {
	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	u := &domainuser.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(u).Error)

	err = db.Create(&domainuser.User{Username: "alice", Email: "other@example.com"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "got %v", err)
	assert.False(t, IsForeignKeyViolation(err))

	err = db.Create(&domaintask.Task{Title: "orphan", Status: domaintask.StatusPending, UserID: u.ID + 100}).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "got %v", err)
	assert.False(t, IsUniqueViolation(err))
}

func TestConstraintViolations_Postgres(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on&_busy_timeout=5000", sqliteDSN(":memory:"))
	assert.Equal(t, "file:tasks.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("tasks.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:x.db?mode=rwc"))
}

func TestModule_Health(t *testing.T) {
	db, err := Open(Config{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)

	m := NewModule(db, "", &mockLogger{})
	assert.Equal(t, "database", m.Name())
	require.NoError(t, m.Start(context.Background()))

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, DriverSQLite, status.Details["driver"])

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, m.Health(context.Background()).Healthy)
}

func TestModule_NilDB(t *testing.T) {
	m := NewModule(nil, DriverSQLite, &mockLogger{})
	assert.Error(t, m.Start(context.Background()))
	assert.False(t, m.Health(context.Background()).Healthy)
	assert.NoError(t, m.Stop(context.Background()))
}
