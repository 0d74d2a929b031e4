package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
)

// Sale is one finalized transaction. Void sales carry negative totals and
// reference the sale they compensate.
type Sale struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SaleDate        time.Time        `gorm:"column:sale_date;not null"`
	Subtotal        decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalDiscount   decimal.Decimal  `gorm:"column:total_discount;type:numeric(12,2);not null"`
	Total           decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	Type            enums.SaleType   `gorm:"column:type;not null;default:'normal'"`
	Status          enums.SaleStatus `gorm:"column:status;not null;default:'completed'"`
	PaymentMethodID uuid.UUID        `gorm:"column:payment_method_id;type:uuid;not null"`
	VoidedSaleID    *uuid.UUID       `gorm:"column:voided_sale_id;type:uuid"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Details       []SaleDetail   `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
}

// IsNormal reports whether this is a regular counter sale.
func (s *Sale) IsNormal() bool {
	return s.Type == enums.SaleTypeNormal
}

// CanBeVoided reports whether a compensating void may be issued.
func (s *Sale) CanBeVoided() bool {
	return s.Status == enums.SaleStatusCompleted && s.Type == enums.SaleTypeNormal
}
