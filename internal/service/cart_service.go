package service

import (
	"context"
	"errors"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService interface {
	// AddItem reserves one unit and adds it to the caller's line for the
	// product, creating the line on first add.
	AddItem(ctx context.Context, identity model.Identity, productID uuid.UUID) (*model.CartItem, error)
	// RemoveItem deletes the line and returns its whole quantity to stock.
	RemoveItem(ctx context.Context, identity model.Identity, lineID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) (*model.CartView, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

type cartService struct {
	store  repository.Store
	ledger InventoryLedger
	log    *zap.Logger
}

func NewCartService(store repository.Store, ledger InventoryLedger, log *zap.Logger) CartService {
	return &cartService{store: store, ledger: ledger, log: log}
}

func (s *cartService) AddItem(ctx context.Context, identity model.Identity, productID uuid.UUID) (*model.CartItem, error) {
	if identity.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	var line *model.CartLine
	var product *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// 1. Take the unit from stock first; failure leaves the cart alone.
		p, err := s.ledger.Reserve(ctx, tx, productID, 1, "cart:"+identity.UserID.String(), identity.Email)
		if err != nil {
			return err
		}
		product = p

		// 2. Upsert the line.
		line, err = tx.Cart().Increment(ctx, identity.UserID, productID, 1)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.ledger.Announce("reserved", product)
	s.log.Debug("cart item added",
		zap.String("user_id", identity.UserID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", line.Quantity))

	line.Product = product
	item := line.ToItem()
	return &item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, identity model.Identity, lineID uuid.UUID) error {
	if identity.UserID == uuid.Nil {
		return ErrUnauthenticated
	}

	var released *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// 1. Lock the caller's line.
		line, err := tx.Cart().FindLine(ctx, identity.UserID, lineID, true)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrCartLineNotFound
			}
			return err
		}

		// 2. Return its quantity to stock. A product row that no longer
		// exists at all has no stock to return to.
		released, err = s.ledger.Release(ctx, tx, line.ProductID, line.Quantity, "cart:"+line.ID.String(), identity.Email)
		if errors.Is(err, ErrProductNotFound) {
			s.log.Warn("removing cart line for missing product",
				zap.String("cart_line_id", line.ID.String()),
				zap.String("product_id", line.ProductID.String()),
				zap.Int("quantity", line.Quantity))
		} else if err != nil {
			return err
		}

		// 3. Only then drop the line.
		if err := tx.Cart().Delete(ctx, line.ID); err != nil {
			if repository.IsNotFound(err) {
				return ErrCartLineNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return storeError(err)
	}

	if released != nil {
		s.ledger.Announce("released", released)
	}
	return nil
}

func (s *cartService) ListItems(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	lines, err := s.store.Cart().ListByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	view := model.NewCartView(lines)
	return &view, nil
}

func (s *cartService) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.Cart().CountByUser(ctx, userID)
}
