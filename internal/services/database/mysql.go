package database

import (
	"fmt"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"gorm.io/driver/mysql"
)

func newMySQL(config models.DatabaseConfig) (*DB, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.Username,
			config.Password,
			config.Host,
			config.Port,
			config.Database,
		)
	}

	return open(mysql.Open(dsn), gormConfig(), config, "mysql", "MySQL")
}
