package repository

import (
	"context"
	"time"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.created_at ASC, order_items.id ASC")
	}).Preload("Lines.Product")
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.withLines(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error) {
	var order model.Order
	if err := r.withLines(ctx).First(&order, "user_id = ? AND idempotency_key = ?", userID, key).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByPaymentSession(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	if err := r.withLines(ctx).First(&order, "payment_session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.withLines(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	var orders []model.Order
	q := r.withLines(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) ClearPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_session_id = ? AND status = ?", id, sessionID, model.OrderPending).
		Updates(map[string]interface{}{
			"payment_session_id": nil,
			"payment_url":        "",
			"payment_attempts":   gorm.Expr("payment_attempts + 1"),
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID, url string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"payment_session_id": sessionID,
		"payment_url":        url,
		"updated_at":         time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
