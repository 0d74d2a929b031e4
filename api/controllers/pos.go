package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/api/responses"
	"github.com/andreshoyos/gymdesk-backend/api/validators"
	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	"github.com/andreshoyos/gymdesk-backend/internal/pos"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
)

type cartResponse struct {
	SessionID string      `json:"session_id"`
	State     string      `json:"state"`
	Lines     []cart.Line `json:"lines"`
	Totals    cart.Totals `json:"totals"`
}

func newCartResponse(sessionID string, c *cart.Cart) cartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartResponse{
		SessionID: sessionID,
		State:     c.State.String(),
		Lines:     lines,
		Totals:    c.Totals(),
	}
}

// StartPOSSession opens a fresh cart for one terminal.
func StartPOSSession(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := svc.StartSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(session.ID, session.Cart))
	}
}

func GetPOSCart(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		c, err := svc.GetCart(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(sessionID, c))
	}
}

type addLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// AddPOSLine puts one unit of a product in the session cart.
func AddPOSLine(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		c, err := svc.AddProduct(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(sessionID, c))
	}
}

type updateLineRequest struct {
	Quantity *int             `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

// UpdatePOSLine edits the quantity or the discount of one line.
func UpdatePOSLine(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		productID := chi.URLParam(r, "productID")
		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.UpdateLine(r.Context(), sessionID, productID, pos.UpdateLineInput{
			Quantity: payload.Quantity,
			Discount: payload.Discount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(sessionID, c))
	}
}

func RemovePOSLine(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		productID := chi.URLParam(r, "productID")
		c, err := svc.RemoveLine(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(sessionID, c))
	}
}

// ClearPOSCart abandons the in-progress sale and empties the cart.
func ClearPOSCart(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		c, err := svc.ClearCart(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(sessionID, c))
	}
}

type checkoutRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}

type checkoutResponse struct {
	SaleID string      `json:"sale_id"`
	Totals cart.Totals `json:"totals"`
}

// CheckoutPOSSession submits the session cart as a sale.
func CheckoutPOSSession(svc pos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Checkout(r.Context(), sessionID, payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			SaleID: result.Sale.ID.String(),
			Totals: result.Totals,
		})
	}
}
