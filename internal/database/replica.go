package database

import (
	"fmt"
	"log/slog"

	"socialgraph/internal/config"
	"socialgraph/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var readDB *gorm.DB

// ConnectReplica opens the read replica when DB_READ_HOST is set. Without a
// replica every read goes to the primary.
func ConnectReplica(cfg *config.Config) error {
	if cfg.DBReadHost == "" {
		return nil
	}
	db, err := gorm.Open(postgres.Open(dsn(
		cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode,
	)), GormConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to read replica: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return err
	}
	middleware.Logger.Info("Read replica connected", slog.String("host", cfg.DBReadHost))
	readDB = db
	return nil
}

// GetReadDB returns the read replica, or nil when none is configured.
func GetReadDB() *gorm.DB {
	return readDB
}
