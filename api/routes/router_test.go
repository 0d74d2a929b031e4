package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	"github.com/andreshoyos/gymdesk-backend/internal/paymentmethods"
	"github.com/andreshoyos/gymdesk-backend/internal/pos"
	"github.com/andreshoyos/gymdesk-backend/internal/products"
	"github.com/andreshoyos/gymdesk-backend/internal/sales"
	"github.com/andreshoyos/gymdesk-backend/pkg/config"
	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	"github.com/andreshoyos/gymdesk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProductService struct {
	listActive func(ctx context.Context, query string) ([]models.Product, error)
}

func (s stubProductService) ListActive(ctx context.Context, query string) ([]models.Product, error) {
	if s.listActive != nil {
		return s.listActive(ctx, query)
	}
	return nil, nil
}

func (stubProductService) List(ctx context.Context, params pagination.Params, query string) ([]models.Product, error) {
	return nil, nil
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) GetActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input products.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubPaymentMethodService struct{}

func (stubPaymentMethodService) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	return nil, nil
}

func (stubPaymentMethodService) List(ctx context.Context) ([]models.PaymentMethod, error) {
	return nil, nil
}

func (stubPaymentMethodService) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) Create(ctx context.Context, input paymentmethods.CreatePaymentMethodInput) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

func (stubPaymentMethodService) Update(ctx context.Context, id uuid.UUID, input paymentmethods.UpdatePaymentMethodInput) (*models.PaymentMethod, error) {
	panic("unimplemented")
}

type stubPOSService struct {
	start func(ctx context.Context) (*pos.Session, error)
}

func (s stubPOSService) StartSession(ctx context.Context) (*pos.Session, error) {
	if s.start != nil {
		return s.start(ctx)
	}
	return &pos.Session{ID: uuid.NewString(), Cart: cart.New()}, nil
}

func (stubPOSService) GetCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubPOSService) AddProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubPOSService) UpdateLine(ctx context.Context, sessionID, productID string, input pos.UpdateLineInput) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubPOSService) RemoveLine(ctx context.Context, sessionID, productID string) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubPOSService) ClearCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	panic("unimplemented")
}

func (stubPOSService) Checkout(ctx context.Context, sessionID, paymentMethodID string) (*pos.CheckoutResult, error) {
	panic("unimplemented")
}

type stubSaleService struct {
	create func(ctx context.Context, input sales.CreateSaleInput) (*models.Sale, error)
}

func (s stubSaleService) CreateSale(ctx context.Context, input sales.CreateSaleInput) (*models.Sale, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return &models.Sale{ID: uuid.New(), Status: enums.SaleStatusCompleted}, nil
}

func (stubSaleService) SubmitSaleRequest(ctx context.Context, req *cart.SaleRequest) (*models.Sale, error) {
	panic("unimplemented")
}

func (stubSaleService) VoidSale(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	panic("unimplemented")
}

func (stubSaleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	panic("unimplemented")
}

func (stubSaleService) List(ctx context.Context, params pagination.Params, filter sales.ListFilter) (*sales.SaleList, error) {
	return &sales.SaleList{}, nil
}

func (stubSaleService) Report(ctx context.Context, from, to time.Time) ([]sales.ReportRow, error) {
	return nil, nil
}

func (stubSaleService) ReportByProduct(ctx context.Context, from, to time.Time) ([]sales.ProductReportRow, error) {
	return nil, nil
}

type memIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{values: map[string]string{}}
}

func (m *memIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	// Match the real store's contract: strings and byte slices are stored verbatim.
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return false, err
		}
		m.values[key] = string(raw)
	}
	return true, nil
}

func (m *memIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "gd:idempotency:" + scope + ":" + id
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		POS: config.POSConfig{SessionTTL: time.Hour, IdempotencyTTL: time.Hour},
	}
}

func newTestRouter(deps Deps) http.Handler {
	if deps.Config == nil {
		deps.Config = testConfig()
	}
	if deps.Logger == nil {
		deps.Logger = logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	}
	if deps.DBPinger == nil {
		deps.DBPinger = stubPinger{}
	}
	if deps.RedisPinger == nil {
		deps.RedisPinger = stubPinger{}
	}
	if deps.Products == nil {
		deps.Products = stubProductService{}
	}
	if deps.PaymentMethods == nil {
		deps.PaymentMethods = stubPaymentMethodService{}
	}
	if deps.POS == nil {
		deps.POS = stubPOSService{}
	}
	if deps.Sales == nil {
		deps.Sales = stubSaleService{}
	}
	return NewRouter(deps)
}

func TestHealthLiveReportsEnv(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live probe got %d", resp.Code)
	}
	if got := resp.Header().Get("X-GymDesk-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCatalogRouteReturnsProducts(t *testing.T) {
	t.Parallel()
	svc := stubProductService{
		listActive: func(ctx context.Context, query string) ([]models.Product, error) {
			return []models.Product{
				{ID: uuid.New(), Name: "Protein Bar", UnitPrice: decimal.RequireFromString("3.50"), Stock: 12, Status: enums.ProductStatusActive},
			}, nil
		},
	}
	router := newTestRouter(Deps{Products: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Protein Bar") {
		t.Fatalf("expected product in body got %s", resp.Body.String())
	}
}

func TestStartSessionRouteReturnsCart(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			SessionID string      `json:"session_id"`
			State     string      `json:"state"`
			Lines     []cart.Line `json:"lines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID == "" {
		t.Fatal("expected session id in response")
	}
	if envelope.Data.State != string(enums.CartStateEmpty) {
		t.Fatalf("expected empty state got %q", envelope.Data.State)
	}
	if envelope.Data.Lines == nil {
		t.Fatal("expected lines array, not null")
	}
}

func TestCreateSaleRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Deps{IdempotencyStore: newMemIdempotencyStore()})

	body := `{"payment_method_id":"` + uuid.NewString() + `","details":[{"product_id":"` + uuid.NewString() + `","quantity":1,"unit_price":"10.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestCreateSaleReplayServesStoredResponse(t *testing.T) {
	t.Parallel()
	saleID := uuid.New()
	calls := 0
	svc := stubSaleService{
		create: func(ctx context.Context, input sales.CreateSaleInput) (*models.Sale, error) {
			calls++
			return &models.Sale{ID: saleID, Status: enums.SaleStatusCompleted, Type: enums.SaleTypeNormal}, nil
		},
	}
	router := newTestRouter(Deps{Sales: svc, IdempotencyStore: newMemIdempotencyStore()})

	body := `{"payment_method_id":"` + uuid.NewString() + `","details":[{"product_id":"` + uuid.NewString() + `","quantity":1,"unit_price":"10.00"}]}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "ticket-42")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first submit got %d body=%s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on replay got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected single service call got %d", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replayed body:\n%s\nvs\n%s", first.Body.String(), second.Body.String())
	}
}
