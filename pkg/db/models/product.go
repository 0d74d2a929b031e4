package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
)

// Product represents one sellable inventory item at the counter.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description"`
	UnitPrice   decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive reports whether the product can be sold.
func (p *Product) IsActive() bool {
	return p.Status == enums.ProductStatusActive
}

// HasStock reports whether the requested quantity is available.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
