package controllers

import (
	"net/http"
	"strings"

	"github.com/andreshoyos/gymdesk-backend/api/responses"
	"github.com/andreshoyos/gymdesk-backend/api/validators"
	pmsvc "github.com/andreshoyos/gymdesk-backend/internal/paymentmethods"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	"github.com/andreshoyos/gymdesk-backend/pkg/logger"
)

// ListPaymentMethods returns the tenders selectable at checkout.
func ListPaymentMethods(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// ListAllPaymentMethods includes inactive tenders for administration.
func ListAllPaymentMethods(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

type createPaymentMethodRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=cash card transfer"`
}

func CreatePaymentMethod(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodType, err := enums.ParsePaymentMethodType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
			return
		}
		method, err := svc.Create(r.Context(), pmsvc.CreatePaymentMethodInput{
			Name: payload.Name,
			Type: methodType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}

type updatePaymentMethodRequest struct {
	Name   *string `json:"name,omitempty"`
	Type   *string `json:"type,omitempty"`
	Status *string `json:"status,omitempty"`
}

func UpdatePaymentMethod(svc pmsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseUUIDParam(r, "paymentMethodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := pmsvc.UpdatePaymentMethodInput{Name: payload.Name}
		if payload.Type != nil {
			methodType, err := enums.ParsePaymentMethodType(strings.TrimSpace(*payload.Type))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
				return
			}
			input.Type = &methodType
		}
		if payload.Status != nil {
			status, err := enums.ParsePaymentMethodStatus(strings.TrimSpace(*payload.Status))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		method, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, method)
	}
}
