package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/you/missionlog/internal/config"
	"github.com/you/missionlog/internal/infrastructure/auth"
	"github.com/you/missionlog/internal/infrastructure/database"
	"github.com/you/missionlog/internal/infrastructure/repositories"
	"github.com/you/missionlog/internal/logging"
)

// Migrates the schema, seeds the publish policies and checks the configured
// backing services without starting the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging, cfg.App.Env)

	fail := func(msg string, err error) {
		logger.Error(msg, "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, false)
	if err != nil {
		fail("failed to connect to database", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		fail("failed to get underlying sql.DB", err)
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db); err != nil {
		fail("failed to run auto-migration", err)
	}

	enforcer, err := auth.NewPolicyEnforcer(db)
	if err != nil {
		fail("failed to load publish policies", err)
	}
	policies, err := enforcer.GetPolicy()
	if err != nil {
		fail("failed to read publish policies", err)
	}

	var identities int64
	if err := db.Model(&repositories.DBIdentity{}).Count(&identities).Error; err != nil {
		fail("failed to query identities table", err)
	}
	logger.Info("database ready", "driver", cfg.Database.Driver, "identities", identities, "policies", len(policies))

	if cfg.OTP.Store == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := database.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			fail("failed to reach redis", err)
		}
		_ = rdb.Close()
		logger.Info("redis ready", "addr", cfg.Redis.Addr)
	}
}
