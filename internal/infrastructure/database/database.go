package database

import (
	"fmt"

	"github.com/you/missionlog/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open creates a database connection for the configured driver ("sqlite" or "postgres")
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite allows one writer; in-memory databases exist per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// AutoMigrate creates the identity table. The casbin_rule table is created
// by the policy adapter when the enforcer is built.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&repositories.DBIdentity{}); err != nil {
		return fmt.Errorf("failed to migrate identities table: %w", err)
	}
	return nil
}
