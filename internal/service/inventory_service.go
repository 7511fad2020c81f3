package service

import (
	"context"
	"fmt"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 100

// InventoryLedger is the authority on product stock. Reserve and Release run
// inside the caller's transaction; Restock opens its own.
type InventoryLedger interface {
	Reserve(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, ref, actor string) (*model.Product, error)
	Release(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, ref, actor string) (*model.Product, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int, actor string) (*model.Product, error)
	History(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
	// Announce broadcasts the stock of products changed by a committed
	// transaction.
	Announce(action string, products ...*model.Product)
}

type inventoryLedger struct {
	store  repository.Store
	events EventPublisher
	log    *zap.Logger
}

func NewInventoryLedger(store repository.Store, events EventPublisher, log *zap.Logger) InventoryLedger {
	return &inventoryLedger{store: store, events: events, log: log}
}

func (l *inventoryLedger) Reserve(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, ref, actor string) (*model.Product, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, ok, err := tx.Products().DecrementStock(ctx, productID, qty)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		// Tell a missing product apart from a failed stock condition.
		if _, err := tx.Products().FindByID(ctx, productID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrProductNotFound
			}
			return nil, storeError(err)
		}
		return nil, ErrOutOfStock
	}

	if err := l.record(ctx, tx, product, model.MovementReserve, qty, ref, actor); err != nil {
		return nil, err
	}
	if product.Stock == 0 {
		l.log.Info("product sold out and deactivated",
			zap.String("product_id", product.ID.String()),
			zap.String("reference", ref))
	}
	return product, nil
}

func (l *inventoryLedger) Release(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, ref, actor string) (*model.Product, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, ok, err := tx.Products().IncrementStock(ctx, productID, qty)
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return nil, ErrProductNotFound
	}

	if err := l.record(ctx, tx, product, model.MovementRelease, qty, ref, actor); err != nil {
		return nil, err
	}
	return product, nil
}

func (l *inventoryLedger) Restock(ctx context.Context, productID uuid.UUID, qty int, actor string) (*model.Product, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *model.Product
	err := l.store.Transaction(ctx, func(tx repository.Store) error {
		// Retired products cannot be restocked.
		if _, err := tx.Products().FindByIDForUpdate(ctx, productID); err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}

		product, ok, err := tx.Products().IncrementStock(ctx, productID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProductNotFound
		}
		updated = product
		return l.record(ctx, tx, product, model.MovementRestock, qty, "", actor)
	})
	if err != nil {
		return nil, storeError(err)
	}

	l.log.Info("product restocked",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", qty),
		zap.Int("stock", updated.Stock),
		zap.String("actor", actor))
	l.Announce("restocked", updated)
	return updated, nil
}

func (l *inventoryLedger) History(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if _, err := l.store.Products().FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return l.store.Movements().FindByProduct(ctx, productID, limit)
}

func (l *inventoryLedger) Announce(action string, products ...*model.Product) {
	publishStock(l.events, action, products...)
}

func (l *inventoryLedger) record(ctx context.Context, tx repository.Store, product *model.Product, kind model.MovementType, qty int, ref, actor string) error {
	movement := &model.StockMovement{
		ProductID:  product.ID,
		Type:       kind,
		Quantity:   qty,
		StockAfter: product.Stock,
		Reference:  ref,
		CreatedBy:  actor,
	}
	if err := tx.Movements().Record(ctx, movement); err != nil {
		return fmt.Errorf("record %s movement: %w", kind, err)
	}
	return nil
}
