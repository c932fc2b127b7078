package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/domain/entities"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Index(ctx context.Context, class entities.DiseaseClass, treatments []string) error {
	return m.Called(ctx, class, treatments).Error(0)
}

func (m *mockCatalog) Search(ctx context.Context, query string, limit int) ([]entities.DiseaseClass, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DiseaseClass), args.Error(1)
}

func TestCatalogService_SearchInMemory(t *testing.T) {
	svc := NewCatalogService(nil)

	results := svc.Search(context.Background(), "tomato blight", 0)
	require.Len(t, results, 2)
	assert.Equal(t, "Tomato Early Blight", results[0].Name)
	assert.Equal(t, "Tomato Late Blight", results[1].Name)

	assert.Len(t, svc.Search(context.Background(), "", 0), DefaultCatalogLimit)
	assert.Len(t, svc.Search(context.Background(), "", 500), len(entities.DiseaseClasses))
	assert.Empty(t, svc.Search(context.Background(), "banana", 5))

	healthy := svc.Search(context.Background(), "HEALTHY", 3)
	require.Len(t, healthy, 3)
	for _, c := range healthy {
		assert.True(t, c.Healthy)
	}
}

func TestCatalogService_SearchUsesIndex(t *testing.T) {
	catalog := new(mockCatalog)
	want := []entities.DiseaseClass{entities.NewDiseaseClass("Corn Common Rust")}
	catalog.On("Search", mock.Anything, "rust", 5).Return(want, nil)

	got := NewCatalogService(catalog).Search(context.Background(), "rust", 5)

	assert.Equal(t, want, got)
	catalog.AssertExpectations(t)
}

func TestCatalogService_SearchFallsBackWhenIndexFails(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Search", mock.Anything, "rust", 10).Return(nil, errors.New("typesense down"))

	got := NewCatalogService(catalog).Search(context.Background(), "rust", 0)

	require.Len(t, got, 2)
	assert.Equal(t, "Apple Cedar Rust", got[0].Name)
	assert.Equal(t, "Corn Common Rust", got[1].Name)
}

func TestCatalogService_Seed(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Index", mock.Anything, mock.AnythingOfType("entities.DiseaseClass"), mock.Anything).Return(nil)

	require.NoError(t, NewCatalogService(catalog).Seed(context.Background()))
	catalog.AssertNumberOfCalls(t, "Index", len(entities.DiseaseClasses))
	catalog.AssertCalled(t, "Index", mock.Anything, entities.NewDiseaseClass("Apple Scab"), DefaultTreatments("Apple Scab"))

	assert.NoError(t, NewCatalogService(nil).Seed(context.Background()))
}

func TestCatalogService_SeedStopsOnError(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("Index", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("collection missing")).Once()

	assert.Error(t, NewCatalogService(catalog).Seed(context.Background()))
	catalog.AssertNumberOfCalls(t, "Index", 1)
}
