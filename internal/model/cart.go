package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one (user, product) pairing. Quantity always mirrors units
// already reserved from the product's stock.
type CartLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (CartLine) TableName() string {
	return "cart_items"
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ProductSnapshot is the live view of a product shown next to a cart line.
type ProductSnapshot struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"is_active"`
}

// CartItem is a cart line joined with its product. Product is nil when the
// product row is gone; such an item is unavailable, contributes nothing to
// the subtotal and blocks order placement until removed.
type CartItem struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *ProductSnapshot `json:"product"`
	Available bool             `json:"available"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

// ToItem joins a line with whatever product was loaded for it.
func (l *CartLine) ToItem() CartItem {
	item := CartItem{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		Subtotal:  decimal.Zero,
	}
	if l.Product != nil && l.Product.ID != uuid.Nil {
		item.Product = &ProductSnapshot{
			ID:       l.Product.ID,
			Title:    l.Product.Title,
			Price:    l.Product.Price,
			ImageURL: l.Product.ImageURL,
			Stock:    l.Product.Stock,
			IsActive: l.Product.IsActive,
		}
		item.Available = true
		item.Subtotal = l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
	}
	return item
}

// CartView is the response shape for a shopper's cart.
type CartView struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func NewCartView(lines []CartLine) CartView {
	view := CartView{Items: make([]CartItem, 0, len(lines)), Subtotal: decimal.Zero}
	for i := range lines {
		item := lines[i].ToItem()
		view.Subtotal = view.Subtotal.Add(item.Subtotal)
		view.Items = append(view.Items, item)
	}
	return view
}
