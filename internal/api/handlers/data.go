package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/financas-pro/internal/api/middleware"
	"github.com/dvloznov/financas-pro/internal/export"
	"github.com/dvloznov/financas-pro/internal/logger"
	"github.com/rs/zerolog"
)

// DataHandler handles export, reset and statistics endpoints.
type DataHandler struct {
	svc Service
	log zerolog.Logger
	now func() time.Time
}

// NewDataHandler creates a new data handler.
func NewDataHandler(svc Service, log zerolog.Logger) *DataHandler {
	return &DataHandler{svc: svc, log: log, now: time.Now}
}

// DownloadCSV handles GET /api/export
func (h *DataHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.RenderCSV()
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to render CSV")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export data")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DeliverExport handles POST /api/export, sending the CSV to every
// configured destination.
func (h *DataHandler) DeliverExport(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Export(r.Context()); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Export failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to deliver export")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"filename": export.Filename})
}

// Reset handles POST /api/reset?confirm=true
func (h *DataHandler) Reset(w http.ResponseWriter, r *http.Request) {
	done, err := h.svc.ResetData(r.Context(), confirmFromQuery(r))
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Reset failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to reset data")
		return
	}
	if !done {
		middleware.WriteError(w, http.StatusPreconditionRequired, confirmationRequired)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// Stats handles GET /api/stats?month=YYYY-MM. The current month is used
// when month is absent.
func (h *DataHandler) Stats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), now.Month()

	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	stats := h.svc.Stats(year, month)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"month":   fmt.Sprintf("%04d-%02d", stats.Year, int(stats.Month)),
		"income":  stats.Income,
		"expense": stats.Expense,
		"balance": stats.Balance,
		"count":   countInMonth(h.svc, year, month),
	})
}

func countInMonth(svc Service, year int, month time.Month) int {
	n := 0
	for _, t := range svc.Transactions() {
		if t.Date.Year == year && t.Date.Month == month {
			n++
		}
	}
	return n
}
