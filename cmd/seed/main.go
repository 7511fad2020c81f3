package main

import (
	"context"
	"flag"

	"go-storefront/internal/bootstrap"
	"go-storefront/internal/repository"
	"go-storefront/internal/service"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	withCatalog := flag.Bool("catalog", true, "load the demo catalog into an empty store")
	flag.Parse()

	// 1. Load Env
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	ctx := context.Background()

	// 2. Setup Database
	db := database.ConnectDB(cfg.DatabaseURL, log, false)
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 3. Roles, privileges and the admin account
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		log.Fatal("Failed to seed roles", zap.Error(err))
	}
	if err := bootstrap.SeedAdmin(ctx, userRepo, roleRepo, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal("Failed to seed admin user", zap.Error(err))
	}

	// 4. Demo catalog
	if *withCatalog {
		store := repository.NewGormStore(db)
		ledger := service.NewInventoryLedger(store, nil, log)
		catalog := service.NewCatalogService(store, ledger, nil, log)
		if err := bootstrap.SeedCatalog(ctx, catalog, log); err != nil {
			log.Fatal("Failed to seed catalog", zap.Error(err))
		}
	}

	log.Info("Seed complete", zap.String("admin", cfg.AdminEmail))
}
