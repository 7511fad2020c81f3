package repository

import (
	"context"
	"time"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepo struct {
	db *gorm.DB
}

func (r *cartRepo) FindLine(ctx context.Context, userID, lineID uuid.UUID, lock bool) (*model.CartLine, error) {
	var line model.CartLine
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&line, "id = ? AND user_id = ?", lineID, userID).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepo) Increment(ctx context.Context, userID, productID uuid.UUID, qty int) (*model.CartLine, error) {
	line := model.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + ?", qty),
				"updated_at": time.Now(),
			}),
		},
		clause.Returning{},
	).Create(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepo) ListByUser(ctx context.Context, userID uuid.UUID, lock bool) ([]model.CartLine, error) {
	var lines []model.CartLine
	q := r.db.WithContext(ctx).Preload("Product")
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "cart_items"}})
	}
	err := q.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&lines).Error
	return lines, err
}

func (r *cartRepo) Delete(ctx context.Context, lineID uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, "id = ?", lineID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) DeleteLines(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, lineIDs).
		Delete(&model.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *cartRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CartLine{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
