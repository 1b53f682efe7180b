package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/financas-pro/internal/api/middleware"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/dvloznov/financas-pro/internal/tracker"
	"github.com/rs/zerolog"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	svc Service
	log zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(svc Service, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{svc: svc, log: log}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.svc.Categories()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
		"count":      len(cats),
	})
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req tracker.NewCategory
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), req)
	if err != nil {
		if isInvalidInput(err) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to create category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, c)
}

// DeleteCategory handles DELETE /api/categories/{id}?confirm=true
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	done, err := h.svc.DeleteCategory(r.Context(), id, confirmFromQuery(r))
	if err != nil {
		var protected *ledger.ProtectedCategoryError
		if errors.As(err, &protected) {
			middleware.WriteError(w, http.StatusForbidden, ledger.ProtectedCategoryNotice)
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("category_id", id).Msg("Failed to delete category")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if !done {
		middleware.WriteError(w, http.StatusPreconditionRequired, confirmationRequired)
		return
	}

	h.log.Info().Str("category_id", id).Msg("Category deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id})
}
