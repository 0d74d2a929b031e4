package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
)

// PaymentMethodRepository defines persistence for tender types.
type PaymentMethodRepository interface {
	Create(context.Context, *models.PaymentMethod) (*models.PaymentMethod, error)
	Update(context.Context, *models.PaymentMethod) (*models.PaymentMethod, error)
	FindByID(context.Context, uuid.UUID) (*models.PaymentMethod, error)
	ListActive(context.Context) ([]models.PaymentMethod, error)
	List(context.Context) ([]models.PaymentMethod, error)
}

// Repository is the GORM-backed payment method store.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new payment method row.
func (r *Repository) Create(ctx context.Context, pm *models.PaymentMethod) (*models.PaymentMethod, error) {
	if err := r.db.WithContext(ctx).Create(pm).Error; err != nil {
		return nil, err
	}
	return pm, nil
}

// Update saves an existing payment method row.
func (r *Repository) Update(ctx context.Context, pm *models.PaymentMethod) (*models.PaymentMethod, error) {
	if err := r.db.WithContext(ctx).Save(pm).Error; err != nil {
		return nil, err
	}
	return pm, nil
}

// FindByID loads a payment method regardless of status.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&pm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pm, nil
}

// ListActive returns the tenders selectable at checkout.
func (r *Repository) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PaymentMethodStatusActive).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns every payment method for administration.
func (r *Repository) List(ctx context.Context) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
