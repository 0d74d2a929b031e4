package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	"github.com/andreshoyos/gymdesk-backend/pkg/metrics"
	"github.com/andreshoyos/gymdesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AdjustStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
}

type tenderLoader interface {
	GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

// CreateSaleInput is the validated payload for a new sale.
type CreateSaleInput struct {
	PaymentMethodID uuid.UUID
	Details         []SaleDetailInput
}

// SaleDetailInput is one submitted line. UnitPrice and Discount are the
// operator's snapshots; they are recorded as-is, never re-read from the
// catalog.
type SaleDetailInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// SaleList is one page of sales plus the cursor for the next page.
type SaleList struct {
	Sales      []models.Sale
	NextCursor string
}

// Service finalizes, voids, and reports on sales.
type Service interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error)
	SubmitSaleRequest(ctx context.Context, req *cart.SaleRequest) (*models.Sale, error)
	VoidSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params pagination.Params, filter ListFilter) (*SaleList, error)
	Report(ctx context.Context, from, to time.Time) ([]ReportRow, error)
	ReportByProduct(ctx context.Context, from, to time.Time) ([]ProductReportRow, error)
}

type service struct {
	repo       SaleRepository
	products   productStore
	tenders    tenderLoader
	tx         txRunner
	logger     *logger.Logger
	posMetrics *metrics.POSMetrics
}

// NewService builds the sales service.
func NewService(repo SaleRepository, products productStore, tenders tenderLoader, tx txRunner, logg *logger.Logger, posMetrics *metrics.POSMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if tenders == nil {
		return nil, fmt.Errorf("tender loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		products:   products,
		tenders:    tenders,
		tx:         tx,
		logger:     logg,
		posMetrics: posMetrics,
	}, nil
}

// CreateSale validates the payload against the live catalog, then persists
// the sale and decrements stock in one transaction. The guarded stock update
// is what makes concurrent terminals safe: two sales racing for the last
// units cannot both commit.
func (s *service) CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error) {
	paymentMethod, err := s.tenders.GetActivePaymentMethod(ctx, input.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if len(input.Details) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "sale must contain at least one line")
	}

	seen := map[uuid.UUID]struct{}{}
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	details := make([]models.SaleDetail, 0, len(input.Details))

	for _, payload := range input.Details {
		if payload.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if _, dup := seen[payload.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in sale").
				WithDetails(map[string]any{"product_id": payload.ProductID})
		}
		seen[payload.ProductID] = struct{}{}

		if payload.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
		}
		if payload.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
		}
		if payload.Discount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be non-negative")
		}

		product, err := s.products.FindByID(ctx, payload.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": payload.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"product_id": product.ID})
		}
		if product.Stock <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "product has no available stock").
				WithDetails(map[string]any{"product_id": product.ID})
		}
		if !product.HasStock(payload.Quantity) {
			return nil, pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
				WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
		}

		detail := models.SaleDetail{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   payload.UnitPrice,
			Quantity:    payload.Quantity,
			Discount:    payload.Discount,
		}
		detail.ComputeTotals()
		if detail.Subtotal.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds line subtotal").
				WithDetails(map[string]any{"product_id": product.ID})
		}

		subtotal = subtotal.Add(detail.TotalPrice)
		totalDiscount = totalDiscount.Add(detail.Discount)
		details = append(details, detail)
	}

	sale := &models.Sale{
		ID:              uuid.New(),
		SaleDate:        time.Now().UTC(),
		Subtotal:        subtotal,
		TotalDiscount:   totalDiscount,
		Total:           subtotal.Sub(totalDiscount),
		Type:            enums.SaleTypeNormal,
		Status:          enums.SaleStatusCompleted,
		PaymentMethodID: paymentMethod.ID,
		Details:         details,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Create(ctx, tx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist sale")
		}
		for _, detail := range sale.Details {
			if err := s.products.AdjustStock(ctx, tx, detail.ProductID, -detail.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeStockExceeded, "stock changed during submission").
						WithDetails(map[string]any{"product_id": detail.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
	}

	sale.PaymentMethod = paymentMethod
	s.logger.Info(s.logger.WithSaleID(ctx, sale.ID.String()), "sale created")
	return sale, nil
}

// SubmitSaleRequest adapts a finalized cart to CreateSale. This is the
// checkout submitter the POS session layer calls.
func (s *service) SubmitSaleRequest(ctx context.Context, req *cart.SaleRequest) (*models.Sale, error) {
	if req == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale request is required")
	}
	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method id")
	}
	details := make([]SaleDetailInput, 0, len(req.Details))
	for _, line := range req.Details {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		details = append(details, SaleDetailInput{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
		})
	}
	return s.CreateSale(ctx, CreateSaleInput{PaymentMethodID: paymentMethodID, Details: details})
}

// VoidSale writes a compensating sale with negated amounts and restores the
// stock the original sale consumed. The original row keeps its history; only
// its status flips.
func (s *service) VoidSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	original, err := s.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !original.CanBeVoided() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sale cannot be voided").
			WithDetails(map[string]any{"sale_id": original.ID, "status": original.Status, "type": original.Type})
	}

	voidID := original.ID
	voidSale := &models.Sale{
		ID:              uuid.New(),
		SaleDate:        time.Now().UTC(),
		Subtotal:        original.Subtotal.Neg(),
		TotalDiscount:   original.TotalDiscount.Neg(),
		Total:           original.Total.Neg(),
		Type:            enums.SaleTypeVoid,
		Status:          enums.SaleStatusCompleted,
		PaymentMethodID: original.PaymentMethodID,
		VoidedSaleID:    &voidID,
	}
	for _, detail := range original.Details {
		compensating := models.SaleDetail{
			ID:          uuid.New(),
			ProductID:   detail.ProductID,
			ProductName: detail.ProductName,
			UnitPrice:   detail.UnitPrice,
			Quantity:    -detail.Quantity,
			Discount:    detail.Discount.Neg(),
		}
		compensating.ComputeTotals()
		voidSale.Details = append(voidSale.Details, compensating)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Create(ctx, tx, voidSale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist void sale")
		}
		if err := s.repo.UpdateStatus(ctx, tx, original.ID, enums.SaleStatusVoided); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark sale voided")
		}
		for _, detail := range original.Details {
			if err := s.products.AdjustStock(ctx, tx, detail.ProductID, detail.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void sale")
	}

	voidSale.PaymentMethod = original.PaymentMethod
	s.posMetrics.IncSaleVoided()
	s.logger.Info(s.logger.WithSaleID(ctx, voidSale.ID.String()), "sale voided")
	return voidSale, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filter ListFilter) (*SaleList, error) {
	rows, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	list := &SaleList{Sales: rows}
	if len(rows) > limit {
		list.Sales = rows[:limit]
		last := list.Sales[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) Report(ctx context.Context, from, to time.Time) ([]ReportRow, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range end must be after start")
	}
	rows, err := s.repo.Report(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales report")
	}
	return rows, nil
}

func (s *service) ReportByProduct(ctx context.Context, from, to time.Time) ([]ProductReportRow, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report range end must be after start")
	}
	rows, err := s.repo.ReportByProduct(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales report by product")
	}
	return rows, nil
}
