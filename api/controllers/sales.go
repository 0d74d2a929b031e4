package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreshoyos/gymdesk-backend/api/responses"
	"github.com/andreshoyos/gymdesk-backend/api/validators"
	salesvc "github.com/andreshoyos/gymdesk-backend/internal/sales"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
	"github.com/andreshoyos/gymdesk-backend/pkg/pagination"
	"github.com/andreshoyos/gymdesk-backend/pkg/types"
)

type createSaleRequest struct {
	PaymentMethodID string              `json:"payment_method_id" validate:"required,uuid"`
	Details         []saleDetailRequest `json:"details" validate:"required,min=1,dive"`
}

type saleDetailRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

func (req createSaleRequest) toInput() (salesvc.CreateSaleInput, error) {
	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return salesvc.CreateSaleInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method id")
	}
	input := salesvc.CreateSaleInput{PaymentMethodID: paymentMethodID}
	for _, detail := range req.Details {
		productID, err := uuid.Parse(detail.ProductID)
		if err != nil {
			return salesvc.CreateSaleInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
		}
		input.Details = append(input.Details, salesvc.SaleDetailInput{
			ProductID: productID,
			Quantity:  detail.Quantity,
			UnitPrice: detail.UnitPrice,
			Discount:  detail.Discount,
		})
	}
	return input, nil
}

// CreateSale records a sale submitted directly, outside a POS session.
func CreateSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.CreateSale(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

func GetSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

// ListSales pages through sales, optionally bounded by date range and type.
func ListSales(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := salesvc.ListFilter{From: from, To: to}
		if raw := r.URL.Query().Get("type"); raw != "" {
			saleType, err := enums.ParseSaleType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			filter.Type = &saleType
		}

		params := pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}
		list, err := svc.List(r.Context(), params, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Sales, &types.ListMeta{Limit: limit, NextCursor: list.NextCursor})
	}
}

// VoidSale issues the compensating sale for a completed transaction.
func VoidSale(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "saleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := svc.VoidSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

func reportRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// Default to the current day when the range is omitted.
	now := time.Now().UTC()
	if from == nil {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		from = &start
	}
	if to == nil {
		end := from.Add(24 * time.Hour)
		to = &end
	}
	return *from, *to, nil
}

// SalesReport aggregates the period per payment method.
func SalesReport(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Report(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"from":    from,
			"to":      to,
			"methods": rows,
		})
	}
}

// SalesReportByProduct aggregates the period per product.
func SalesReportByProduct(svc salesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ReportByProduct(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"from":     from,
			"to":       to,
			"products": rows,
		})
	}
}
