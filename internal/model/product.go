package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Title       string          `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	ImageURL    string          `gorm:"type:text" json:"image_url"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock" validate:"gte=0"`
	IsActive    bool            `gorm:"not null" json:"is_active"`

	// Nullable: deleting a category leaves the reference dangling on purpose.
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Sellable reports whether a shopper may currently reserve the product.
func (p *Product) Sellable() bool {
	return p.IsActive && p.Stock > 0
}

type Category struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null" json:"name" validate:"required"`
}
