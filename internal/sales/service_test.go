package sales

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	"github.com/andreshoyos/gymdesk-backend/pkg/pagination"
)

type stubSaleRepo struct {
	created       []*models.Sale
	statusUpdates map[uuid.UUID]enums.SaleStatus
	sale          *models.Sale
	listRows      []models.Sale
}

func (s *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, sale *models.Sale) (*models.Sale, error) {
	s.created = append(s.created, sale)
	return sale, nil
}

func (s *stubSaleRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status enums.SaleStatus) error {
	if s.statusUpdates == nil {
		s.statusUpdates = map[uuid.UUID]enums.SaleStatus{}
	}
	s.statusUpdates[id] = status
	return nil
}

func (s *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Sale, error) {
	if s.sale == nil || s.sale.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sale, nil
}

func (s *stubSaleRepo) List(_ context.Context, _ pagination.Params, _ ListFilter) ([]models.Sale, error) {
	return s.listRows, nil
}

func (s *stubSaleRepo) Report(_ context.Context, _, _ time.Time) ([]ReportRow, error) {
	return nil, nil
}

func (s *stubSaleRepo) ReportByProduct(_ context.Context, _, _ time.Time) ([]ProductReportRow, error) {
	return nil, nil
}

type stubProductStore struct {
	products    map[uuid.UUID]*models.Product
	adjustments map[uuid.UUID]int
	adjustErr   error
}

func (s *stubProductStore) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductStore) AdjustStock(_ context.Context, _ *gorm.DB, id uuid.UUID, delta int) error {
	if s.adjustErr != nil {
		return s.adjustErr
	}
	if s.adjustments == nil {
		s.adjustments = map[uuid.UUID]int{}
	}
	s.adjustments[id] += delta
	return nil
}

type stubTenderLoader struct {
	method *models.PaymentMethod
	err    error
}

func (s *stubTenderLoader) GetActivePaymentMethod(_ context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.method == nil || s.method.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return s.method, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "sales-test", Output: io.Discard})
}

func cashMethod() *models.PaymentMethod {
	return &models.PaymentMethod{
		ID:     uuid.New(),
		Name:   "Efectivo",
		Type:   enums.PaymentMethodTypeCash,
		Status: enums.PaymentMethodStatusActive,
	}
}

func activeProduct(stock int) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		Name:      "Protein Bar",
		UnitPrice: decimal.RequireFromString("10.00"),
		Stock:     stock,
		Status:    enums.ProductStatusActive,
	}
}

func newTestService(t *testing.T, repo SaleRepository, products productStore, tenders tenderLoader) Service {
	t.Helper()
	svc, err := NewService(repo, products, tenders, stubTxRunner{}, testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestCreateSaleSuccess(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(5)
	repo := &stubSaleRepo{}
	store := &stubProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, repo, store, &stubTenderLoader{method: method})

	sale, err := svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details: []SaleDetailInput{{
			ProductID: product.ID,
			Quantity:  3,
			UnitPrice: decimal.RequireFromString("10.00"),
			Discount:  decimal.RequireFromString("5.00"),
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !sale.Subtotal.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected subtotal: %s", sale.Subtotal)
	}
	if !sale.Total.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected total: %s", sale.Total)
	}
	if sale.Type != enums.SaleTypeNormal || sale.Status != enums.SaleStatusCompleted {
		t.Fatalf("unexpected sale classification: %+v", sale)
	}
	if sale.PaymentMethod != method {
		t.Fatal("expected payment method attached to result")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted sale, got %d", len(repo.created))
	}
	if store.adjustments[product.ID] != -3 {
		t.Fatalf("expected stock decremented by 3, got %d", store.adjustments[product.ID])
	}

	detail := sale.Details[0]
	if detail.ProductName != "Protein Bar" {
		t.Fatalf("expected denormalized product name, got %q", detail.ProductName)
	}
	if !detail.Subtotal.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected detail subtotal: %s", detail.Subtotal)
	}
}

func TestCreateSaleValidations(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(2)
	store := &stubProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, &stubSaleRepo{}, store, &stubTenderLoader{method: method})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{PaymentMethodID: method.ID})
	assertCode(t, err, pkgerrors.CodeEmptyCart)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: uuid.New(),
		Details:         []SaleDetailInput{{ProductID: product.ID, Quantity: 1, UnitPrice: product.UnitPrice}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details: []SaleDetailInput{
			{ProductID: product.ID, Quantity: 1, UnitPrice: product.UnitPrice},
			{ProductID: product.ID, Quantity: 1, UnitPrice: product.UnitPrice},
		},
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details:         []SaleDetailInput{{ProductID: product.ID, Quantity: 3, UnitPrice: product.UnitPrice}},
	})
	assertCode(t, err, pkgerrors.CodeStockExceeded)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details: []SaleDetailInput{{
			ProductID: product.ID,
			Quantity:  1,
			UnitPrice: product.UnitPrice,
			Discount:  decimal.RequireFromString("50.00"),
		}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateSaleOutOfStock(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(0)
	store := &stubProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, &stubSaleRepo{}, store, &stubTenderLoader{method: method})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details:         []SaleDetailInput{{ProductID: product.ID, Quantity: 1, UnitPrice: product.UnitPrice}},
	})
	assertCode(t, err, pkgerrors.CodeOutOfStock)
}

func TestCreateSaleStockRaceSurfacesAsStockExceeded(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(5)
	store := &stubProductStore{
		products:  map[uuid.UUID]*models.Product{product.ID: product},
		adjustErr: gorm.ErrRecordNotFound,
	}
	svc := newTestService(t, &stubSaleRepo{}, store, &stubTenderLoader{method: method})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		PaymentMethodID: method.ID,
		Details:         []SaleDetailInput{{ProductID: product.ID, Quantity: 2, UnitPrice: product.UnitPrice}},
	})
	assertCode(t, err, pkgerrors.CodeStockExceeded)
}

func TestSubmitSaleRequestAdaptsCartPayload(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(5)
	repo := &stubSaleRepo{}
	store := &stubProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, repo, store, &stubTenderLoader{method: method})

	sale, err := svc.SubmitSaleRequest(context.Background(), &cart.SaleRequest{
		PaymentMethodID: method.ID.String(),
		Details: []cart.SaleRequestDetail{{
			ProductID:   product.ID.String(),
			ProductName: product.Name,
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("10.00"),
			Discount:    decimal.Zero,
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sale.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("unexpected total: %s", sale.Total)
	}

	_, err = svc.SubmitSaleRequest(context.Background(), &cart.SaleRequest{
		PaymentMethodID: "not-a-uuid",
		Details:         []cart.SaleRequestDetail{{ProductID: product.ID.String(), Quantity: 1}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestVoidSale(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	product := activeProduct(5)
	original := &models.Sale{
		ID:              uuid.New(),
		SaleDate:        time.Now().UTC(),
		Subtotal:        decimal.RequireFromString("30.00"),
		TotalDiscount:   decimal.RequireFromString("5.00"),
		Total:           decimal.RequireFromString("25.00"),
		Type:            enums.SaleTypeNormal,
		Status:          enums.SaleStatusCompleted,
		PaymentMethodID: method.ID,
		PaymentMethod:   method,
		Details: []models.SaleDetail{{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   decimal.RequireFromString("10.00"),
			Quantity:    3,
			TotalPrice:  decimal.RequireFromString("30.00"),
			Discount:    decimal.RequireFromString("5.00"),
			Subtotal:    decimal.RequireFromString("25.00"),
		}},
	}
	repo := &stubSaleRepo{sale: original}
	store := &stubProductStore{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, repo, store, &stubTenderLoader{method: method})

	voided, err := svc.VoidSale(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if voided.Type != enums.SaleTypeVoid {
		t.Fatalf("expected void sale, got %s", voided.Type)
	}
	if !voided.Total.Equal(decimal.RequireFromString("-25.00")) {
		t.Fatalf("expected negated total, got %s", voided.Total)
	}
	if voided.VoidedSaleID == nil || *voided.VoidedSaleID != original.ID {
		t.Fatal("expected reference to the original sale")
	}
	if voided.Details[0].Quantity != -3 {
		t.Fatalf("expected negated quantity, got %d", voided.Details[0].Quantity)
	}
	if !voided.Details[0].Subtotal.Equal(decimal.RequireFromString("-25.00")) {
		t.Fatalf("expected negated detail subtotal, got %s", voided.Details[0].Subtotal)
	}
	if store.adjustments[product.ID] != 3 {
		t.Fatalf("expected stock restored by 3, got %d", store.adjustments[product.ID])
	}
	if repo.statusUpdates[original.ID] != enums.SaleStatusVoided {
		t.Fatal("expected original sale marked voided")
	}
}

func TestVoidSaleRejectsNonVoidable(t *testing.T) {
	t.Parallel()

	method := cashMethod()
	original := &models.Sale{
		ID:              uuid.New(),
		Type:            enums.SaleTypeNormal,
		Status:          enums.SaleStatusVoided,
		PaymentMethodID: method.ID,
	}
	svc := newTestService(t, &stubSaleRepo{sale: original}, &stubProductStore{}, &stubTenderLoader{method: method})

	_, err := svc.VoidSale(context.Background(), original.ID)
	assertCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.VoidSale(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListPaginates(t *testing.T) {
	t.Parallel()

	rows := make([]models.Sale, 0, 3)
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		rows = append(rows, models.Sale{ID: uuid.New(), CreatedAt: base.Add(-time.Duration(i) * time.Minute)})
	}
	repo := &stubSaleRepo{listRows: rows}
	svc := newTestService(t, repo, &stubProductStore{}, &stubTenderLoader{})

	list, err := svc.List(context.Background(), pagination.Params{Limit: 2}, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Sales) != 2 {
		t.Fatalf("expected trimmed page of 2, got %d", len(list.Sales))
	}
	if list.NextCursor == "" {
		t.Fatal("expected next cursor for the extra row")
	}
	cursor, err := pagination.ParseCursor(list.NextCursor)
	if err != nil {
		t.Fatalf("unexpected cursor error: %v", err)
	}
	if cursor.ID != list.Sales[1].ID {
		t.Fatal("cursor should point at the last returned row")
	}
}

func TestReportValidatesRange(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubSaleRepo{}, &stubProductStore{}, &stubTenderLoader{})

	now := time.Now().UTC()
	_, err := svc.Report(context.Background(), now, now)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.ReportByProduct(context.Background(), now, now.Add(-time.Hour))
	assertCode(t, err, pkgerrors.CodeValidation)
}
