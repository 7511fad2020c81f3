package repository

import (
	"context"

	"go-storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the unit of work the storefront core runs against. Repositories
// obtained from the Store passed into Transaction's callback share the
// transaction; anything returned from fn aborts it.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Cart() CartRepository
	Orders() OrderRepository
	Movements() MovementRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type ProductFilter struct {
	ActiveOnly bool
	CategoryID *uuid.UUID
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error

	// DecrementStock subtracts qty only while stock >= qty, in one statement,
	// and deactivates the product when stock lands on zero. ok is false when
	// the row is missing or the condition failed.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (product *model.Product, ok bool, err error)
	// IncrementStock adds qty, including to soft-deleted products. It never
	// touches is_active.
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) (product *model.Product, ok bool, err error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type CartRepository interface {
	// FindLine returns the caller's line; lock takes a row lock for the
	// remainder of the transaction.
	FindLine(ctx context.Context, userID, lineID uuid.UUID, lock bool) (*model.CartLine, error)
	// Increment creates the (user, product) line at qty or adds qty to it.
	Increment(ctx context.Context, userID, productID uuid.UUID, qty int) (*model.CartLine, error)
	// ListByUser returns lines oldest first with their products preloaded.
	ListByUser(ctx context.Context, userID uuid.UUID, lock bool) ([]model.CartLine, error)
	Delete(ctx context.Context, lineID uuid.UUID) error
	DeleteLines(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type OrderFilter struct {
	Status model.OrderStatus
}

type OrderRepository interface {
	// Create inserts the header and its lines.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Order, error)
	FindByPaymentSession(ctx context.Context, sessionID string) (*model.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// UpdateStatus moves id from one status to another only if it is still
	// in from. ok is false when someone else moved it first.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, updates map[string]interface{}) (ok bool, err error)
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID, url string) error
	// ClearPaymentSession detaches sessionID from a pending order and bumps
	// its attempt counter. ok is false when the order holds another session.
	ClearPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (ok bool, err error)
}

type MovementRepository interface {
	Record(ctx context.Context, movement *model.StockMovement) error
	FindByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Products() ProductRepository    { return &productRepo{db: s.db} }
func (s *gormStore) Categories() CategoryRepository { return &categoryRepo{db: s.db} }
func (s *gormStore) Cart() CartRepository           { return &cartRepo{db: s.db} }
func (s *gormStore) Orders() OrderRepository        { return &orderRepo{db: s.db} }
func (s *gormStore) Movements() MovementRepository  { return &movementRepo{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
