package encyclopedia

import (
	"context"
	"fmt"
	"net/url"

	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/clients/mediawiki"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

const defaultDomain = "en.wikipedia.org"

// WikipediaAdapter implements EncyclopediaProvider on top of the MediaWiki API.
type WikipediaAdapter struct {
	client mediawiki.Client
	domain string
}

// NewWikipediaAdapter creates a new encyclopedia adapter. The source domain is
// taken from apiURL's host.
func NewWikipediaAdapter(client mediawiki.Client, apiURL string) providers.EncyclopediaProvider {
	domain := defaultDomain
	if u, err := url.Parse(apiURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}
	return &WikipediaAdapter{client: client, domain: domain}
}

// Page fetches title and parses its section tree.
func (a *WikipediaAdapter) Page(ctx context.Context, title string) (*providers.EncyclopediaPage, error) {
	page, err := a.client.QueryPage(ctx, title)
	if err != nil {
		return nil, apperrors.NewExternalError("encyclopedia page lookup failed", err)
	}
	if page.Missing {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("page %q does not exist", title))
	}

	summary, sections := parseExtract(page.Extract)
	domain := a.domain
	if u, err := url.Parse(page.FullURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}

	return &providers.EncyclopediaPage{
		Title:    page.Title,
		Summary:  summary,
		FullURL:  page.FullURL,
		Domain:   domain,
		Sections: sections,
	}, nil
}

// Search returns candidate titles for query.
func (a *WikipediaAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	titles, err := a.client.Search(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewExternalError("encyclopedia search failed", err)
	}
	return titles, nil
}
