package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/pkg/db"
	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
)

// Service exposes payment method operations to the API and the sales service.
type Service interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	List(ctx context.Context) ([]models.PaymentMethod, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	Create(ctx context.Context, input CreatePaymentMethodInput) (*models.PaymentMethod, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePaymentMethodInput) (*models.PaymentMethod, error)
}

// CreatePaymentMethodInput carries the fields for a new tender.
type CreatePaymentMethodInput struct {
	Name string
	Type enums.PaymentMethodType
}

// UpdatePaymentMethodInput applies a partial edit; nil fields are unchanged.
type UpdatePaymentMethodInput struct {
	Name   *string
	Type   *enums.PaymentMethodType
	Status *enums.PaymentMethodStatus
}

type service struct {
	repo PaymentMethodRepository
}

// NewService builds the payment method service.
func NewService(repo PaymentMethodRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active payment methods")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return rows, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	return pm, nil
}

// GetActivePaymentMethod is the lookup used when a sale is submitted. An
// inactive tender cannot be charged against.
func (s *service) GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	pm, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pm.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not active")
	}
	return pm, nil
}

func (s *service) Create(ctx context.Context, input CreatePaymentMethodInput) (*models.PaymentMethod, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method type")
	}

	pm := &models.PaymentMethod{
		ID:     uuid.New(),
		Name:   name,
		Type:   input.Type,
		Status: enums.PaymentMethodStatusActive,
	}
	created, err := s.repo.Create(ctx, pm)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment method name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment method")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePaymentMethodInput) (*models.PaymentMethod, error) {
	pm, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method name is required")
		}
		pm.Name = name
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method type")
		}
		pm.Type = *input.Type
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method status")
		}
		pm.Status = *input.Status
	}

	updated, err := s.repo.Update(ctx, pm)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment method name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment method")
	}
	return updated, nil
}
