package database

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// Module owns the shared connection's lifecycle and reports its health.
type Module struct {
	db     *gorm.DB
	driver string
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule wraps an open connection.
func NewModule(db *gorm.DB, driver string, logger types.Logger) *Module {
	if driver == "" {
		driver = DriverSQLite
	}
	return &Module{db: db, driver: driver, logger: logger}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "database"
}

// DB returns the shared connection.
func (m *Module) DB() *gorm.DB {
	return m.db
}

// Start verifies the connection is usable.
func (m *Module) Start(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	m.logger.Info("Database module started", "driver", m.driver)
	return nil
}

// Stop closes the connection pool.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	m.logger.Info("Closing database connection")
	if err := Close(m.db); err != nil {
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}

// Health pings the database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":           m.driver,
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		},
	}
}
