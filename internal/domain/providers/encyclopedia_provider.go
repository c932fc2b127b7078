package providers

import (
	"context"

	"github.com/agrisense/backend/internal/domain/entities"
)

// EncyclopediaPage is a resolved reference page with its section tree.
type EncyclopediaPage struct {
	Title    string
	Summary  string
	FullURL  string
	Domain   string
	Sections []*PageSection
}

// PageSection is a node of a page's section tree.
type PageSection struct {
	Title    string
	Text     string
	Sections []*PageSection
}

// EncyclopediaProvider looks up reference pages.
type EncyclopediaProvider interface {
	// Page fetches the page with exactly this title. A missing page is
	// reported as a NOT_FOUND AppError.
	Page(ctx context.Context, title string) (*EncyclopediaPage, error)

	// Search returns up to limit candidate page titles for query.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// DiseaseCatalog indexes disease labels for free-text search.
type DiseaseCatalog interface {
	Index(ctx context.Context, class entities.DiseaseClass, treatments []string) error
	Search(ctx context.Context, query string, limit int) ([]entities.DiseaseClass, error)
}
