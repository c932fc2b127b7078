package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/agrisense/backend/internal/domain/entities"
)

// DiseaseCatalogService defines the label search used by the catalog endpoint
type DiseaseCatalogService interface {
	Search(ctx context.Context, query string, limit int) []entities.DiseaseClass
}

// DiseaseSearchHandler handles catalog search requests
type DiseaseSearchHandler struct {
	catalog DiseaseCatalogService
}

// NewDiseaseSearchHandler creates a new disease search handler
func NewDiseaseSearchHandler(catalog DiseaseCatalogService) *DiseaseSearchHandler {
	return &DiseaseSearchHandler{catalog: catalog}
}

// Search handles GET /api/diseases/search
func (h *DiseaseSearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = l
	}

	results := h.catalog.Search(r.Context(), query, limit)
	if results == nil {
		results = []entities.DiseaseClass{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}
