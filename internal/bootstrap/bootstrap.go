// Package bootstrap prepares a fresh database: schema, access roles, the
// admin account and an optional demo catalog.
package bootstrap

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table the storefront owns.
func Models() []interface{} {
	return []interface{}{
		&model.Privilege{},
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.CartLine{},
		&model.Order{},
		&model.OrderLine{},
		&model.StockMovement{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the admin account when the email is not yet registered.
func SeedAdmin(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, email, password string, log *zap.Logger) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !repository.IsNotFound(err) {
		return err
	}

	role, err := roles.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("find admin role: %w", err)
	}

	admin := &model.User{
		Email:    email,
		FullName: "Store Administrator",
		RoleID:   &role.ID,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("admin user created", zap.String("email", email))
	return nil
}

type demoProduct struct {
	title    string
	category string
	price    string
	stock    int
}

var demoCatalog = []demoProduct{
	{"Stoneware Mug", "Kitchen", "12.50", 40},
	{"Pour-Over Kettle", "Kitchen", "54.00", 12},
	{"Linen Apron", "Kitchen", "28.00", 25},
	{"Desk Lamp", "Home", "39.99", 8},
	{"Wool Throw", "Home", "89.00", 5},
	{"Notebook, Dot Grid", "Stationery", "9.75", 120},
}

// SeedCatalog loads a small demo catalog into an empty store. It goes through
// the catalog service so initial stock shows up in the movement history.
func SeedCatalog(ctx context.Context, catalog service.CatalogService, log *zap.Logger) error {
	existing, err := catalog.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("catalog already populated, skipping demo data", zap.Int("products", len(existing)))
		return nil
	}

	categories := map[string]*model.Category{}
	for _, item := range demoCatalog {
		category, ok := categories[item.category]
		if !ok {
			category, err = catalog.CreateCategory(ctx, service.CategoryInput{Name: item.category}, "seed")
			if err != nil {
				return fmt.Errorf("seed category %q: %w", item.category, err)
			}
			categories[item.category] = category
		}

		_, err := catalog.CreateProduct(ctx, service.ProductInput{
			Title:      item.title,
			Price:      decimal.RequireFromString(item.price),
			Stock:      item.stock,
			CategoryID: &category.ID,
		}, "seed")
		if err != nil {
			return fmt.Errorf("seed product %q: %w", item.title, err)
		}
	}

	log.Info("demo catalog seeded", zap.Int("products", len(demoCatalog)), zap.Int("categories", len(categories)))
	return nil
}
