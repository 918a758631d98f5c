package dbmanager

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sql-research-assistant/internal/constants"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager owns the single database handle used for schema introspection and
// for executing generated queries.
type Manager struct {
	db       *gorm.DB
	dbType   string
	readOnly bool
	schema   SchemaOptions
	logger   *zap.Logger
}

// NewManager wraps an already opened connection.
func NewManager(db *gorm.DB, dbType string, readOnly bool, schema SchemaOptions, logger *zap.Logger) *Manager {
	if schema.SampleRows < 0 {
		schema.SampleRows = 0
	}
	return &Manager{
		db:       db,
		dbType:   dbType,
		readOnly: readOnly,
		schema:   schema,
		logger:   logger.Named("dbmanager"),
	}
}

// Connect opens the configured database and validates the table filter.
func Connect(ctx context.Context, config ConnectionConfig, schema SchemaOptions, logger *zap.Logger) (*Manager, error) {
	db, err := Open(config)
	if err != nil {
		return nil, err
	}

	manager := NewManager(db, config.Type, config.ReadOnly, schema, logger)
	if err := manager.validateIncludeTables(ctx); err != nil {
		manager.Close()
		return nil, err
	}

	logger.Info("connected to database",
		zap.String("type", config.Type),
		zap.Bool("read_only", config.ReadOnly),
	)
	return manager, nil
}

// DB exposes the underlying gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// tables lists the user tables visible to the model, sorted by name.
func (m *Manager) tables(ctx context.Context) ([]string, error) {
	all, err := m.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var tables []string
	if len(m.schema.IncludeTables) > 0 {
		existing := make(map[string]bool, len(all))
		for _, name := range all {
			existing[name] = true
		}
		for _, name := range m.schema.IncludeTables {
			if !existing[name] {
				return nil, fmt.Errorf("table %s does not exist", name)
			}
			tables = append(tables, name)
		}
	} else {
		for _, name := range all {
			if !isInternalTable(name) {
				tables = append(tables, name)
			}
		}
	}

	sort.Strings(tables)
	return tables, nil
}

func (m *Manager) validateIncludeTables(ctx context.Context) error {
	if len(m.schema.IncludeTables) == 0 {
		return nil
	}
	if _, err := m.tables(ctx); err != nil {
		return fmt.Errorf("invalid SCHEMA_INCLUDE_TABLES: %w", err)
	}
	return nil
}

// supportsTransactions reports whether queries can be wrapped in a read-only transaction.
func (m *Manager) supportsTransactions() bool {
	return m.dbType != constants.DatabaseTypeClickhouse
}

func (m *Manager) quote(name string) string {
	var b strings.Builder
	m.db.Dialector.QuoteTo(&b, name)
	return b.String()
}
