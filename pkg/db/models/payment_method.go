package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
)

// PaymentMethod is one of the settlement options offered at checkout.
type PaymentMethod struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Name      string                    `gorm:"column:name;not null;unique"`
	Type      enums.PaymentMethodType   `gorm:"column:type;not null;default:'cash'"`
	Status    enums.PaymentMethodStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive reports whether the payment method can be offered.
func (pm *PaymentMethod) IsActive() bool {
	return pm.Status == enums.PaymentMethodStatusActive
}
