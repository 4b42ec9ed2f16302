package sql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/tigerroll/swell/pkg/orchestrator/core/config"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/logger"
)

// connectionString builds the DSN expected by the GORM driver for the
// configured database type.
func connectionString(c config.DatabaseConfig) (string, error) {
	switch c.Type {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, sslMode), nil
	case "mysql":
		var authPart string
		if c.User != "" {
			authPart = c.User
			if c.Password != "" {
				authPart = fmt.Sprintf("%s:%s", c.User, c.Password)
			}
			authPart += "@"
		}
		return fmt.Sprintf("%stcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			authPart, c.Host, c.Port, c.Database), nil
	case "sqlite":
		// The SQLite dialector expects the file path directly.
		return c.Database, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

func dialector(c config.DatabaseConfig) (gorm.Dialector, error) {
	dsn, err := connectionString(c)
	if err != nil {
		return nil, err
	}
	switch c.Type {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Type)
	}
}

// OpenDB opens a GORM connection for the configured database and applies the
// pool settings.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dbConfig := cfg.Swell.Database

	d, err := dialector(dbConfig)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if dbConfig.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.Pool.MaxOpenConns)
	}
	if dbConfig.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.Pool.MaxIdleConns)
	}

	logger.Infof("Established DB connection (%s).", dbConfig.Type)
	return db, nil
}
