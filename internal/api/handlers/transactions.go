package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/api/middleware"
	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/finance"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *finance.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

// parseDateFilter builds a date filter from query parameters. Either a named
// range or explicit start_date/end_date; defaults to the current month.
func parseDateFilter(r *http.Request) (domain.DateFilter, error) {
	query := r.URL.Query()
	now := time.Now()

	if rangeType := query.Get("range"); rangeType != "" {
		var custom *time.Time
		if monthStr := query.Get("month"); monthStr != "" {
			month, err := time.Parse("2006-01", monthStr)
			if err != nil {
				return domain.DateFilter{}, errors.New("invalid month format, want YYYY-MM")
			}
			custom = &month
		}
		return domain.NewDateFilter(domain.DateRangeType(rangeType), now, custom), nil
	}

	startStr, endStr := query.Get("start_date"), query.Get("end_date")
	if startStr == "" && endStr == "" {
		return domain.CurrentMonthFilter(now), nil
	}

	start := now.AddDate(-1, 0, 0)
	end := now
	var err error
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return domain.DateFilter{}, errors.New("invalid start_date format, want YYYY-MM-DD")
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return domain.DateFilter{}, errors.New("invalid end_date format, want YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return domain.DateFilter{Type: domain.RangeCustom, StartDate: start, EndDate: end}, nil
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDateFilter(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions := h.svc.Transactions(filter)
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if t.Type != domain.TypeIncome && t.Type != domain.TypeExpense {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be income or expense")
		return
	}
	if t.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	created, err := h.svc.AddTransaction(r.Context(), &t)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var t domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t.ID = id

	if err := h.svc.UpdateTransaction(r.Context(), &t); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, &t)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// StatsHandler handles GET /api/stats
type StatsHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *finance.Service, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, log: log}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseDateFilter(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   h.svc.Stats(filter),
		"monthly": h.svc.MonthlyStats(time.Now()),
	})
}
