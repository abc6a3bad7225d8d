package database

import (
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"gorm.io/driver/sqlite"
)

func newSQLite(config models.DatabaseConfig) (*DB, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for SQLite")
	}

	// one writer at a time keeps the recorder workers from hitting SQLITE_BUSY
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 1
	}

	return open(sqlite.Open(config.FilePath), gormConfig(), config, "sqlite3", "SQLite")
}
