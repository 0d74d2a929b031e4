package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	"github.com/andreshoyos/gymdesk-backend/pkg/metrics"
)

type productCatalog interface {
	GetActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type checkoutSubmitter interface {
	SubmitSaleRequest(ctx context.Context, req *cart.SaleRequest) (*models.Sale, error)
}

// Session identifies one terminal's cart between requests.
type Session struct {
	ID   string     `json:"session_id"`
	Cart *cart.Cart `json:"cart"`
}

// UpdateLineInput carries a partial line edit. Exactly one field must be set.
type UpdateLineInput struct {
	Quantity *int
	Discount *decimal.Decimal
}

// CheckoutResult is returned after a successful submission.
type CheckoutResult struct {
	Sale   *models.Sale
	Totals cart.Totals
}

// Service drives one cart per POS session: mutations load the cart from the
// store, apply the edit, and write it back with a refreshed TTL.
type Service interface {
	StartSession(ctx context.Context) (*Session, error)
	GetCart(ctx context.Context, sessionID string) (*cart.Cart, error)
	AddProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error)
	UpdateLine(ctx context.Context, sessionID, productID string, input UpdateLineInput) (*cart.Cart, error)
	RemoveLine(ctx context.Context, sessionID, productID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, sessionID string) (*cart.Cart, error)
	Checkout(ctx context.Context, sessionID, paymentMethodID string) (*CheckoutResult, error)
}

type service struct {
	store      CartStore
	catalog    productCatalog
	submitter  checkoutSubmitter
	logger     *logger.Logger
	posMetrics *metrics.POSMetrics
	sessionTTL time.Duration
}

// NewService builds the POS session service.
func NewService(store CartStore, catalog productCatalog, submitter checkoutSubmitter, logg *logger.Logger, posMetrics *metrics.POSMetrics, sessionTTL time.Duration) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("checkout submitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &service{
		store:      store,
		catalog:    catalog,
		submitter:  submitter,
		logger:     logg,
		posMetrics: posMetrics,
		sessionTTL: sessionTTL,
	}, nil
}

func (s *service) StartSession(ctx context.Context) (*Session, error) {
	sessionID := uuid.NewString()
	c := cart.New()
	if err := s.store.Save(ctx, sessionID, c, s.sessionTTL); err != nil {
		return nil, err
	}
	s.logger.Info(s.logger.WithSessionID(ctx, sessionID), "pos session started")
	return &Session{ID: sessionID, Cart: c}, nil
}

func (s *service) GetCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.store.Load(ctx, sessionID)
}

// mutate loads the session cart, applies fn, and persists the result. The
// cart is only written back when fn succeeds, so a rejected edit leaves the
// stored state untouched.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(c *cart.Cart) error) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, c, s.sessionTTL); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) AddProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.catalog.GetActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return c.AddProduct(cart.Product{
			ID:        product.ID.String(),
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Stock:     product.Stock,
			Active:    product.IsActive(),
		})
	})
}

func (s *service) UpdateLine(ctx context.Context, sessionID, productID string, input UpdateLineInput) (*cart.Cart, error) {
	if (input.Quantity == nil) == (input.Discount == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of quantity or discount must be provided")
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		if input.Quantity != nil {
			return c.UpdateQuantity(productID, *input.Quantity)
		}
		return c.UpdateDiscount(productID, *input.Discount)
	})
}

func (s *service) RemoveLine(ctx context.Context, sessionID, productID string) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return c.RemoveLine(productID)
	})
}

func (s *service) ClearCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart) error {
		return c.Cancel()
	})
}

// Checkout freezes the cart, submits the sale, and tears the session down on
// success. Any failure puts the cart back into building with every line
// intact; nothing is retried automatically.
func (s *service) Checkout(ctx context.Context, sessionID, paymentMethodID string) (*CheckoutResult, error) {
	ctx = s.logger.WithSessionID(ctx, sessionID)
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := c.BeginCheckout(); err != nil {
		s.recordFailure(err)
		return nil, err
	}
	req, err := c.BuildSaleRequest(paymentMethodID)
	if err != nil {
		c.FailSubmission()
		s.recordFailure(err)
		return nil, err
	}

	started := time.Now()
	sale, err := s.submitter.SubmitSaleRequest(ctx, req)
	if err != nil {
		c.FailSubmission()
		if saveErr := s.store.Save(ctx, sessionID, c, s.sessionTTL); saveErr != nil {
			s.logger.Error(ctx, "preserving cart after failed submission", saveErr)
		}
		s.posMetrics.ObserveCheckout("failure", time.Since(started))
		if typed := pkgerrors.As(err); typed != nil {
			s.recordFailure(typed)
			return nil, typed
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodeSubmission, err, "submit sale")
		s.recordFailure(wrapped)
		return nil, wrapped
	}

	c.MarkSubmitted()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.logger.Error(ctx, "deleting pos session after checkout", err)
	}

	s.posMetrics.ObserveCheckout("success", time.Since(started))
	paymentType := "unknown"
	if sale.PaymentMethod != nil {
		paymentType = sale.PaymentMethod.Type.String()
	}
	s.posMetrics.IncSaleCompleted(paymentType)
	s.logger.Info(s.logger.WithSaleID(ctx, sale.ID.String()), "sale submitted")

	return &CheckoutResult{Sale: sale, Totals: c.Totals()}, nil
}

func (s *service) recordFailure(err error) {
	code := string(pkgerrors.CodeInternal)
	if typed := pkgerrors.As(err); typed != nil {
		code = string(typed.Code())
	}
	s.posMetrics.IncCheckoutFailure(code)
}
