package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/api/middleware"
	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/finance"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// PaymentMethodsHandler handles payment-method endpoints.
type PaymentMethodsHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewPaymentMethodsHandler creates a new payment methods handler.
func NewPaymentMethodsHandler(svc *finance.Service, log zerolog.Logger) *PaymentMethodsHandler {
	return &PaymentMethodsHandler{svc: svc, log: log}
}

// ListPaymentMethods handles GET /api/payment-methods
func (h *PaymentMethodsHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := h.svc.PaymentMethods()
	if methods == nil {
		methods = []*domain.PaymentMethod{}
	}
	middleware.WriteJSON(w, http.StatusOK, methods)
}

// CreatePaymentMethod handles POST /api/payment-methods
func (h *PaymentMethodsHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var method domain.PaymentMethod
	if err := json.NewDecoder(r.Body).Decode(&method); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if method.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	created, err := h.svc.AddPaymentMethod(r.Context(), &method)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create payment method")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create payment method")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdatePaymentMethod handles PUT /api/payment-methods/{id}
func (h *PaymentMethodsHandler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request, id string) {
	var method domain.PaymentMethod
	if err := json.NewDecoder(r.Body).Decode(&method); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	method.ID = id

	if err := h.svc.UpdatePaymentMethod(r.Context(), &method); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Payment method not found")
			return
		}
		h.log.Error().Err(err).Str("method_id", id).Msg("Failed to update payment method")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update payment method")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, &method)
}

// DeletePaymentMethod handles DELETE /api/payment-methods/{id}
func (h *PaymentMethodsHandler) DeletePaymentMethod(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeletePaymentMethod(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Payment method not found")
			return
		}
		h.log.Error().Err(err).Str("method_id", id).Msg("Failed to delete payment method")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete payment method")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
