package database

import (
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles the in-memory SQLite connection of one recorder.
type Manager struct {
	DB     *gorm.DB
	SqlDB  *sql.DB
	Name   string
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens a private in-memory SQLite database. Each manager gets its
// own named database so recorders never see each other's rows.
func (m *Manager) Connect() error {
	m.Name = "wargame-" + uuid.NewString()

	var err error
	m.DB, err = OpenMemory(m.Name, NewGormLogger(m.Logger, logger.Silent))
	if err != nil {
		return fmt.Errorf("failed to open in-memory SQLite DB: %w", err)
	}

	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := m.SqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}

	m.Logger.Debug().Str("name", m.Name).Msg("Using local SQLite DB in memory")
	return nil
}

// Setup migrates the given models.
func (m *Manager) Setup(models ...any) error {
	m.Logger.Debug().Int("models", len(models)).Msg("Migrating schema")
	if err := m.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool, dropping the in-memory database.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// OpenMemory opens a shared-cache in-memory SQLite database called name.
func OpenMemory(name string, log logger.Interface) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 log,
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}
