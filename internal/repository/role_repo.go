package repository

import (
	"context"
	"errors"

	"go-storefront/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	// SeedDefaults creates the default privileges and roles and grants every
	// privilege to the admin role. Safe to run on every start.
	SeedDefaults(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		privileges := make([]model.Privilege, 0, len(model.DefaultPrivileges))
		for _, p := range model.DefaultPrivileges {
			privilege := p
			if err := tx.Where("code = ?", p.Code).FirstOrCreate(&privilege).Error; err != nil {
				return err
			}
			privileges = append(privileges, privilege)
		}

		for _, defaultRole := range model.DefaultRoles {
			var role model.Role
			err := tx.Where("code = ?", defaultRole.Code).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = defaultRole
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			if role.Code == model.RoleAdmin {
				if err := tx.Model(&role).Association("Privileges").Replace(privileges); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
