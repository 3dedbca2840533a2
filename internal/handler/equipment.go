// Package handler contains the HTTP handlers of the equipcheck JSON API.
//
// This file serves the equipment catalog and fresh checklist drafts.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

// CatalogHandler serves the equipment catalog.
type CatalogHandler struct {
	catalog *domain.Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *domain.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the catalog routes.
//
// Routes:
// - GET /api/equipment              -> List
// - GET /api/equipment/{code}/draft -> Draft
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/equipment", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/equipment/{code}/draft", requireUser(http.HandlerFunc(h.Draft)))
}

// List returns every unit in catalog order.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	equipment := h.catalog.Equipment()
	out := make([]equipmentJSON, len(equipment))
	for i, e := range equipment {
		out[i] = toEquipmentJSON(e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"equipment": out})
}

// Draft returns a fresh checklist for a unit: every template item
// OPERATIONAL with the live result preview.
func (h *CatalogHandler) Draft(w http.ResponseWriter, r *http.Request) {
	draft, err := domain.DraftFor(h.catalog, r.PathValue("code"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftJSON(draft))
}
