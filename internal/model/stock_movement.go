package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementReserve MovementType = "RESERVE"
	MovementRelease MovementType = "RELEASE"
	MovementRestock MovementType = "RESTOCK"
	MovementAdjust  MovementType = "ADJUST"
)

// StockMovement is an append-only record of one ledger mutation, written in
// the same transaction as the stock change it describes.
type StockMovement struct {
	ID         uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	ProductID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Type       MovementType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity   int          `gorm:"not null" json:"quantity"`
	StockAfter int          `gorm:"not null" json:"stock_after"`
	Reference  string       `gorm:"type:varchar(64)" json:"reference,omitempty"`
	CreatedBy  string       `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
