package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderCompleted},
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransition is the order state machine.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the header of an order aggregate. TotalAmount is a snapshot taken
// at placement and is never recomputed from the lines.
type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_order_idempotency" json:"user_id"`
	Email            string          `gorm:"type:varchar(255);not null" json:"email"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	IdempotencyKey   string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_order_idempotency" json:"-"`
	PaymentSessionID *string         `gorm:"type:varchar(255);uniqueIndex" json:"payment_session_id,omitempty"`
	PaymentURL       string          `gorm:"type:text" json:"payment_url,omitempty"`
	// PaymentAttempts counts sessions retired after expiring.
	PaymentAttempts int        `gorm:"not null;default:0" json:"-"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"items"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine freezes quantity, unit price and title at placement time.
type OrderLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductTitle string          `gorm:"type:varchar(255);not null" json:"product_title"`
	Quantity     int             `gorm:"not null;check:order_item_quantity,quantity > 0" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt    time.Time       `json:"created_at"`

	// Live product, loaded for display only. Nil when the product is gone.
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderLine) TableName() string {
	return "order_items"
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LineTotal is quantity times the snapshotted unit price.
func (l *OrderLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
