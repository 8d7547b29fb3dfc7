package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormweb/pkg/config"
	"dormweb/pkg/models"
)

// InitSessionDB opens the session store and migrates its schema.
func InitSessionDB(cfg config.DBConfig, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		log.Info("connecting to session database", slog.String("driver", cfg.Driver),
			slog.String("host", cfg.Host), slog.String("port", cfg.Port))
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		log.Info("opening session database", slog.String("driver", "sqlite"), slog.String("path", cfg.SQLitePath))
		dialector = sqlite.Open(cfg.SQLitePath)
	}
	return initDB(dialector, cfg.Driver == "postgres", &models.Session{})
}

// OpenSQLite is used by tests and local runs; ":memory:" keeps everything in process.
func OpenSQLite(path string) (*gorm.DB, error) {
	return initDB(sqlite.Open(path), false, &models.Session{})
}

func initDB(dialector gorm.Dialector, pooled bool, models ...interface{}) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if pooled {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// sqlite :memory: is per connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return db, nil
}

// Ping reports whether the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
