package repository

import (
	"context"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type movementRepo struct {
	db *gorm.DB
}

func (r *movementRepo) Record(ctx context.Context, movement *model.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *movementRepo) FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	q := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, err
}
