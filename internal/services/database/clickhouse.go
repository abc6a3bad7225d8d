package database

import (
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"gorm.io/driver/clickhouse"
)

func newClickHouse(config models.DatabaseConfig) (*DB, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = fmt.Sprintf(
			"clickhouse://%s:%s@%s:%d/%s",
			config.Username,
			config.Password,
			config.Host,
			config.Port,
			config.Database,
		)
	}

	dialector := clickhouse.New(clickhouse.Config{
		DSN:                    dsn,
		DefaultGranularity:     3,
		DefaultCompression:     "LZ4",
		DefaultIndexType:       "minmax",
		DefaultTableEngineOpts: "ENGINE=MergeTree() ORDER BY (created_at, id)",
	})

	cfg := gormConfig()
	// the ClickHouse driver has incomplete prepared statement support
	cfg.PrepareStmt = false

	return open(dialector, cfg, config, "clickhouse", "ClickHouse")
}
