package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	tsclient "github.com/agrisense/backend/internal/infrastructure/clients/typesense"
)

const diseaseCollection = "diseases"

// DiseaseCatalogAdapter indexes disease labels in Typesense
type DiseaseCatalogAdapter struct {
	client *tsclient.Client
}

var _ providers.DiseaseCatalog = (*DiseaseCatalogAdapter)(nil)

// NewDiseaseCatalogAdapter creates a new Typesense catalog adapter
func NewDiseaseCatalogAdapter(client *tsclient.Client) *DiseaseCatalogAdapter {
	return &DiseaseCatalogAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *DiseaseCatalogAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(diseaseCollection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: diseaseCollection,
		Fields: []api.Field{
			{Name: "name", Type: "string"},
			{Name: "crop", Type: "string", Facet: pointer.True()},
			{Name: "healthy", Type: "bool", Facet: pointer.True()},
			{Name: "treatments", Type: "string[]"},
			{Name: "class_index", Type: "int32"},
		},
		DefaultSortingField: pointer.String("class_index"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// DropSchema deletes the collection and every indexed document
func (a *DiseaseCatalogAdapter) DropSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(diseaseCollection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}

func diseaseDocumentID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// Index upserts one disease label with its default treatments
func (a *DiseaseCatalogAdapter) Index(ctx context.Context, class entities.DiseaseClass, treatments []string) error {
	if treatments == nil {
		treatments = []string{}
	}
	document := map[string]interface{}{
		"id":          diseaseDocumentID(class.Name),
		"name":        class.Name,
		"crop":        class.Crop,
		"healthy":     class.Healthy,
		"treatments":  treatments,
		"class_index": entities.DiseaseIndex(class.Name),
	}

	if _, err := a.client.Client().Collection(diseaseCollection).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index disease %s: %w", class.Name, err)
	}
	return nil
}

// Search runs a typo-tolerant query over names, crops and treatments
func (a *DiseaseCatalogAdapter) Search(ctx context.Context, query string, limit int) ([]entities.DiseaseClass, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}
	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,crop,treatments"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(diseaseCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search diseases: %w", err)
	}

	classes := []entities.DiseaseClass{}
	if result.Hits == nil {
		return classes, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		name, _ := doc["name"].(string)
		if name == "" {
			continue
		}
		class := entities.DiseaseClass{Name: name}
		class.Crop, _ = doc["crop"].(string)
		class.Healthy, _ = doc["healthy"].(bool)
		classes = append(classes, class)
	}
	return classes, nil
}
