package services

import (
	"context"
	"strings"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/observability"
)

const (
	DefaultCatalogLimit = 10
	MaxCatalogLimit     = 38
)

// CatalogService answers free-text searches over the classifier's label set.
type CatalogService struct {
	catalog providers.DiseaseCatalog
	classes []entities.DiseaseClass
}

// NewCatalogService creates a new catalog service. catalog may be nil, in
// which case searches run in memory.
func NewCatalogService(catalog providers.DiseaseCatalog) *CatalogService {
	classes := make([]entities.DiseaseClass, len(entities.DiseaseClasses))
	for i, name := range entities.DiseaseClasses {
		classes[i] = entities.NewDiseaseClass(name)
	}
	return &CatalogService{catalog: catalog, classes: classes}
}

// Seed indexes every label with its default treatments.
func (s *CatalogService) Seed(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}
	for _, class := range s.classes {
		if err := s.catalog.Index(ctx, class, DefaultTreatments(class.Name)); err != nil {
			return err
		}
	}
	observability.LoggerFromContext(ctx).Info().Int("count", len(s.classes)).Msg("Seeded disease catalog")
	return nil
}

// Search returns up to limit labels matching query. Index failures fall
// back to the in-memory search.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) []entities.DiseaseClass {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	limit = min(limit, MaxCatalogLimit)

	if s.catalog != nil {
		results, err := s.catalog.Search(ctx, query, limit)
		if err == nil {
			return results
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("Catalog search failed, searching in memory")
	}
	return s.searchInMemory(query, limit)
}

func (s *CatalogService) searchInMemory(query string, limit int) []entities.DiseaseClass {
	terms := strings.Fields(strings.ToLower(query))
	results := []entities.DiseaseClass{}
	for _, class := range s.classes {
		if len(results) == limit {
			break
		}
		if matchesAllTerms(class, terms) {
			results = append(results, class)
		}
	}
	return results
}

func matchesAllTerms(class entities.DiseaseClass, terms []string) bool {
	haystack := strings.ToLower(class.Name)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
