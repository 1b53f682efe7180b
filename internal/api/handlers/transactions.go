package handlers

import (
	"net/http"

	"github.com/dvloznov/financas-pro/internal/api/middleware"
	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/dvloznov/financas-pro/internal/tracker"
	"github.com/rs/zerolog"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	svc Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

// transactionView is a transaction with its category name resolved.
type transactionView struct {
	domain.Transaction
	CategoryName string `json:"categoryName"`
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.svc.Transactions()

	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, transactionView{Transaction: t, CategoryName: h.svc.CategoryName(t.CategoryID)})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": views,
		"count":        len(views),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req tracker.NewTransaction
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.svc.AddTransaction(r.Context(), req)
	if err != nil {
		if isInvalidInput(err) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to add transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, transactionView{Transaction: t, CategoryName: h.svc.CategoryName(t.CategoryID)})
}

// DeleteTransaction handles DELETE /api/transactions/{id}?confirm=true
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	done, err := h.svc.DeleteTransaction(r.Context(), id, confirmFromQuery(r))
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}
	if !done {
		middleware.WriteError(w, http.StatusPreconditionRequired, confirmationRequired)
		return
	}

	h.log.Info().Str("transaction_id", id).Msg("Transaction deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id})
}
