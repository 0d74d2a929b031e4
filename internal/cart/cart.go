package cart

import (
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
)

// Product is the catalog snapshot the engine consumes. Price and stock are
// point-in-time values observed by the caller; the engine never re-reads the
// catalog after a line is created.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
	Active    bool
}

// Line is one product entry in the cart. UnitPrice and MaxStock are snapshots
// taken when the product was first added; MaxStock bounds every later quantity
// edit regardless of what the live catalog says.
type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
	MaxStock    int             `json:"max_stock"`
}

// Subtotal returns quantity * unit_price - discount. The result may be
// negative when the discount was set above the gross amount; callers must
// surface that, not mask it.
func (l Line) Subtotal() decimal.Decimal {
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return gross.Sub(l.Discount)
}

// Totals aggregates the cart. Total is always Subtotal - TotalDiscount.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}

// SaleRequestDetail is one line of the checkout payload, copied verbatim from
// the cart so the submitted sale reflects exactly what the operator saw.
type SaleRequestDetail struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// SaleRequest is the finalized checkout payload handed to the sales service.
type SaleRequest struct {
	PaymentMethodID string              `json:"payment_method_id"`
	Details         []SaleRequestDetail `json:"details"`
}

// Cart holds the per-session line items being assembled for one sale. It is a
// plain in-memory value with no I/O; exactly one operator owns one Cart at a
// time, so no locking happens here.
type Cart struct {
	State enums.CartState `json:"state"`
	Lines []Line          `json:"lines"`
}

// New returns an empty cart ready for building.
func New() *Cart {
	return &Cart{State: enums.CartStateEmpty}
}

func (c *Cart) lineIndex(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID string) (Line, bool) {
	idx := c.lineIndex(productID)
	if idx < 0 {
		return Line{}, false
	}
	return c.Lines[idx], true
}

func (c *Cart) ensureMutable() error {
	switch c.State {
	case enums.CartStateSubmitted:
		return pkgerrors.New(pkgerrors.CodeConflict, "cart has already been submitted")
	case enums.CartStateAwaitingPayment:
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is awaiting payment")
	}
	return nil
}

// AddProduct puts one unit of the product in the cart. The first add creates
// a line with price and stock snapshots; later adds of the same product bump
// the quantity by one, bounded by the stock snapshot from the first add.
func (c *Cart) AddProduct(p Product) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if p.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !p.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if p.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "product has no available stock").
			WithDetails(map[string]any{"product_id": p.ID})
	}

	idx := c.lineIndex(p.ID)
	if idx < 0 {
		c.Lines = append(c.Lines, Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.UnitPrice,
			Quantity:    1,
			Discount:    decimal.Zero,
			MaxStock:    p.Stock,
		})
		c.State = enums.CartStateBuilding
		return nil
	}

	line := &c.Lines[idx]
	if line.Quantity+1 > line.MaxStock {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": p.ID, "max_stock": line.MaxStock})
	}
	line.Quantity++
	return nil
}

// UpdateQuantity sets the quantity on an existing line. A value above the
// line's stock snapshot is rejected and the line is left unchanged.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	idx := c.lineIndex(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeLineNotFound, "cart line not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	line := &c.Lines[idx]
	if quantity > line.MaxStock {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
			WithDetails(map[string]any{"product_id": productID, "max_stock": line.MaxStock})
	}
	line.Quantity = quantity
	return nil
}

// UpdateDiscount sets the monetary discount on an existing line. The value is
// not clamped to the line subtotal here; BuildSaleRequest flags a negative net
// subtotal instead.
func (c *Cart) UpdateDiscount(productID string, discount decimal.Decimal) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	idx := c.lineIndex(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeLineNotFound, "cart line not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	if discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be non-negative")
	}
	c.Lines[idx].Discount = discount
	return nil
}

// RemoveLine drops the line for productID. Removing an absent line is a
// no-op.
func (c *Cart) RemoveLine(productID string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	idx := c.lineIndex(productID)
	if idx < 0 {
		return nil
	}
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	if len(c.Lines) == 0 {
		c.State = enums.CartStateEmpty
	}
	return nil
}

// Totals computes the aggregate amounts over the current lines.
func (c *Cart) Totals() Totals {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	for i := range c.Lines {
		line := c.Lines[i]
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		totalDiscount = totalDiscount.Add(line.Discount)
	}
	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		Total:         subtotal.Sub(totalDiscount),
	}
}

// Clear empties the cart and resets it for a new sale.
func (c *Cart) Clear() {
	c.Lines = nil
	c.State = enums.CartStateEmpty
}

// BeginCheckout moves the cart into payment selection. The lines are frozen
// until the submission resolves or the operator cancels.
func (c *Cart) BeginCheckout() error {
	if c.State == enums.CartStateSubmitted {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart has already been submitted")
	}
	if len(c.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	c.State = enums.CartStateAwaitingPayment
	return nil
}

// BuildSaleRequest produces the checkout payload from the current line
// snapshots. A line whose discount exceeds its gross amount is a defect the
// operator must fix before submitting.
func (c *Cart) BuildSaleRequest(paymentMethodID string) (*SaleRequest, error) {
	if len(c.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if paymentMethodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNoPaymentMethod, "payment method is required")
	}
	details := make([]SaleRequestDetail, 0, len(c.Lines))
	for i := range c.Lines {
		line := c.Lines[i]
		if line.Subtotal().IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds line subtotal").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		details = append(details, SaleRequestDetail{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Discount:    line.Discount,
		})
	}
	return &SaleRequest{PaymentMethodID: paymentMethodID, Details: details}, nil
}

// MarkSubmitted records a successful submission. The cart is terminal after
// this; the session layer replaces it with a fresh one.
func (c *Cart) MarkSubmitted() {
	c.State = enums.CartStateSubmitted
}

// FailSubmission returns the cart to building with every line intact so the
// operator can correct and retry.
func (c *Cart) FailSubmission() {
	if c.State == enums.CartStateAwaitingPayment {
		c.State = enums.CartStateBuilding
	}
}

// Cancel abandons the in-progress sale from any non-terminal state.
func (c *Cart) Cancel() error {
	if c.State == enums.CartStateSubmitted {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart has already been submitted")
	}
	c.Clear()
	return nil
}
