package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxIdempotencyKeyLen = 128

// IdempotencyCache remembers which order a placement key produced. It is a
// fast path only; the unique index on orders decides.
type IdempotencyCache interface {
	Lookup(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, bool)
	Remember(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID)
}

type OrderService interface {
	// PlaceOrder turns the caller's cart into a pending order. created is
	// false when key matched an order placed earlier, which is returned as is.
	PlaceOrder(ctx context.Context, identity model.Identity, key string) (order *model.Order, created bool, err error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	ListAllOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, to model.OrderStatus, actor string) (*model.Order, error)
	CancelOrder(ctx context.Context, identity model.Identity, orderID uuid.UUID) (*model.Order, error)
}

type orderService struct {
	store  repository.Store
	ledger InventoryLedger
	cache  IdempotencyCache
	events EventPublisher
	log    *zap.Logger
}

// NewOrderService wires the assembler. cache may be nil.
func NewOrderService(store repository.Store, ledger InventoryLedger, cache IdempotencyCache, events EventPublisher, log *zap.Logger) OrderService {
	return &orderService{store: store, ledger: ledger, cache: cache, events: events, log: log}
}

// errDuplicatePlacement aborts a transaction that lost the race on the
// idempotency index.
var errDuplicatePlacement = errors.New("order already placed for idempotency key")

// CartDigest derives an idempotency key from the exact cart contents.
func CartDigest(userID uuid.UUID, lines []model.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s:%s:%d", l.ID, l.ProductID, l.Quantity))
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(userID.String()))
	for _, p := range parts {
		h.Write([]byte{'|'})
		h.Write([]byte(p))
	}
	return "cart:" + hex.EncodeToString(h.Sum(nil))
}

func (s *orderService) PlaceOrder(ctx context.Context, identity model.Identity, key string) (*model.Order, bool, error) {
	if identity.UserID == uuid.Nil {
		return nil, false, ErrUnauthenticated
	}
	key = strings.TrimSpace(key)
	if len(key) > maxIdempotencyKeyLen {
		return nil, false, invalidInput("Idempotency-Key is too long")
	}

	if key != "" {
		if existing := s.cachedOrder(ctx, identity.UserID, key); existing != nil {
			return existing, false, nil
		}
	}

	var order *model.Order
	var existing *model.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// 1. A retry with a client key finds the order even though the cart
		// was already cleared.
		if key != "" {
			found, err := tx.Orders().FindByIdempotencyKey(ctx, identity.UserID, key)
			if err == nil {
				existing = found
				return nil
			}
			if !repository.IsNotFound(err) {
				return err
			}
		}

		// 2. Lock the lines with their live products.
		lines, err := tx.Cart().ListByUser(ctx, identity.UserID, true)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			// A concurrent request with the same key may have committed
			// while we waited on the cart lock.
			if key != "" {
				found, err := tx.Orders().FindByIdempotencyKey(ctx, identity.UserID, key)
				if err == nil {
					existing = found
					return nil
				}
				if !repository.IsNotFound(err) {
					return err
				}
			}
			return ErrEmptyCart
		}

		placementKey := key
		if placementKey == "" {
			placementKey = CartDigest(identity.UserID, lines)
			found, err := tx.Orders().FindByIdempotencyKey(ctx, identity.UserID, placementKey)
			if err == nil {
				existing = found
				return nil
			}
			if !repository.IsNotFound(err) {
				return err
			}
		}

		// 3. Price every line at the current price.
		total := decimal.Zero
		orderLines := make([]model.OrderLine, 0, len(lines))
		lineIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			if line.Product == nil {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductID)
			}
			ol := model.OrderLine{
				ProductID:    line.ProductID,
				ProductTitle: line.Product.Title,
				Quantity:     line.Quantity,
				Price:        line.Product.Price,
			}
			total = total.Add(ol.LineTotal())
			orderLines = append(orderLines, ol)
			lineIDs = append(lineIDs, line.ID)
		}

		// 4. Header and lines.
		order = &model.Order{
			UserID:         identity.UserID,
			Email:          identity.Email,
			TotalAmount:    total,
			Status:         model.OrderPending,
			IdempotencyKey: placementKey,
			Lines:          orderLines,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			if repository.IsUniqueViolation(err) {
				return errDuplicatePlacement
			}
			return err
		}

		// 5. Clear exactly what was priced.
		deleted, err := tx.Cart().DeleteLines(ctx, identity.UserID, lineIDs)
		if err != nil {
			return err
		}
		if deleted != int64(len(lineIDs)) {
			return ErrConcurrencyConflict
		}
		return nil
	})

	if errors.Is(err, errDuplicatePlacement) {
		found, findErr := s.store.Orders().FindByIdempotencyKey(ctx, identity.UserID, order.IdempotencyKey)
		if findErr != nil {
			return nil, false, findErr
		}
		return found, false, nil
	}
	if err != nil {
		return nil, false, storeError(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	if key != "" && s.cache != nil {
		s.cache.Remember(ctx, identity.UserID, key, order.ID)
	}

	s.log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", identity.UserID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(order.Lines)))
	publishOrder(s.events, "order_created", order)

	placed, err := s.store.Orders().FindByID(ctx, order.ID)
	if err != nil {
		return order, true, nil
	}
	return placed, true, nil
}

func (s *orderService) cachedOrder(ctx context.Context, userID uuid.UUID, key string) *model.Order {
	if s.cache == nil {
		return nil
	}
	orderID, ok := s.cache.Lookup(ctx, userID, key)
	if !ok {
		return nil
	}
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil || order.UserID != userID {
		return nil
	}
	return order
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return s.store.Orders().FindByUser(ctx, userID)
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListAllOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalidInput("unknown order status")
	}
	return s.store.Orders().FindAll(ctx, filter)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to model.OrderStatus, actor string) (*model.Order, error) {
	if !to.Valid() {
		return nil, invalidInput("unknown order status")
	}
	return s.transition(ctx, orderID, to, actor, nil)
}

func (s *orderService) CancelOrder(ctx context.Context, identity model.Identity, orderID uuid.UUID) (*model.Order, error) {
	if identity.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.transition(ctx, orderID, model.OrderCancelled, identity.Email, &identity.UserID)
}

// transition moves an order along the state machine. Cancelling returns every
// line's quantity to stock in the same transaction.
func (s *orderService) transition(ctx context.Context, orderID uuid.UUID, to model.OrderStatus, actor string, owner *uuid.UUID) (*model.Order, error) {
	var updated *model.Order
	var released []*model.Product
	var from model.OrderStatus

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}
		if owner != nil && order.UserID != *owner {
			return ErrOrderNotFound
		}
		from = order.Status
		if !model.CanTransition(from, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
		}

		ok, err := tx.Orders().UpdateStatus(ctx, order.ID, from, to, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrencyConflict
		}

		if to == model.OrderCancelled {
			for _, line := range order.Lines {
				p, err := s.ledger.Release(ctx, tx, line.ProductID, line.Quantity, "order:"+order.ID.String(), actor)
				if errors.Is(err, ErrProductNotFound) {
					s.log.Warn("cancelled order line refers to missing product",
						zap.String("order_id", order.ID.String()),
						zap.String("product_id", line.ProductID.String()))
					continue
				}
				if err != nil {
					return err
				}
				released = append(released, p)
			}
		}

		updated, err = tx.Orders().FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor))
	s.ledger.Announce("released", released...)
	publishOrder(s.events, "status_changed", updated)
	return updated, nil
}
