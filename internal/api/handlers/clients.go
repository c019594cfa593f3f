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

// ClientsHandler handles client-related endpoints. Client writes flow through
// the service so the charged total stays reconciled with the ledger.
type ClientsHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(svc *finance.Service, log zerolog.Logger) *ClientsHandler {
	return &ClientsHandler{svc: svc, log: log}
}

// ListClients handles GET /api/clients
func (h *ClientsHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients := h.svc.Clients()
	if clients == nil {
		clients = []*domain.Client{}
	}
	middleware.WriteJSON(w, http.StatusOK, clients)
}

// CreateClient handles POST /api/clients
func (h *ClientsHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var client domain.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if client.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	created, line, err := h.svc.AddClient(r.Context(), &client)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create client")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"client":    created,
		"reconcile": line,
	})
}

// UpdateClient handles PUT /api/clients/{id}
func (h *ClientsHandler) UpdateClient(w http.ResponseWriter, r *http.Request, id string) {
	var update domain.ClientUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, line, err := h.svc.UpdateClient(r.Context(), id, update)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.log.Error().Err(err).Str("client_id", id).Msg("Failed to update client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update client")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"client":    updated,
		"reconcile": line,
	})
}

// DeleteClient handles DELETE /api/clients/{id}
func (h *ClientsHandler) DeleteClient(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Client not found")
			return
		}
		h.log.Error().Err(err).Str("client_id", id).Msg("Failed to delete client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete client")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
