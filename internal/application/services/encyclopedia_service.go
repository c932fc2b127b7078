package services

import (
	"context"
	"strings"
	"time"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
	apperrors "github.com/agrisense/backend/pkg/errors"
	"github.com/agrisense/backend/pkg/utils"
)

const (
	encyclopediaTextLimit   = 1200
	encyclopediaSearchLimit = 3
)

// sectionKeywords selects the sections worth surfacing from a page.
var sectionKeywords = []string{"symptoms", "management", "treatment", "prevention", "control"}

// EncyclopediaOutcome tells how an EncyclopediaResult was produced.
type EncyclopediaOutcome string

const (
	EncyclopediaFound  EncyclopediaOutcome = "found"
	EncyclopediaAbsent EncyclopediaOutcome = "absent"
	EncyclopediaFailed EncyclopediaOutcome = "failed"
)

// EncyclopediaResult always carries a usable Info; for absent and failed
// outcomes it is the empty placeholder for the requested name.
type EncyclopediaResult struct {
	Info    *entities.EncyclopediaInfo
	Outcome EncyclopediaOutcome
	Err     error
}

// EncyclopediaService resolves reference pages for disease names.
type EncyclopediaService struct {
	provider providers.EncyclopediaProvider
	timeout  time.Duration
	metrics  *observability.Metrics
}

// NewEncyclopediaService creates a new encyclopedia service. provider may be nil.
func NewEncyclopediaService(provider providers.EncyclopediaProvider, metrics *observability.Metrics) *EncyclopediaService {
	return &EncyclopediaService{
		provider: provider,
		timeout:  config.OutboundRequestTimeout,
		metrics:  metrics,
	}
}

// GetPageInfo looks up disease by exact title, then by the first search hit
// that resolves to a page. It never returns an error.
func (s *EncyclopediaService) GetPageInfo(ctx context.Context, disease string) EncyclopediaResult {
	ctx, span := observability.StartSpan(ctx, "encyclopedia.GetPageInfo")
	defer span.End()

	result := s.lookup(ctx, disease)
	if result.Err != nil {
		observability.RecordError(span, result.Err)
		observability.LoggerFromContext(ctx).Warn().Err(result.Err).Str("disease", disease).Msg("Encyclopedia lookup failed")
	}
	observability.RecordEncyclopediaLookup(ctx, s.metrics, string(result.Outcome))
	return result
}

func (s *EncyclopediaService) lookup(ctx context.Context, disease string) EncyclopediaResult {
	if s.provider == nil {
		return EncyclopediaResult{Info: entities.AbsentEncyclopediaInfo(disease), Outcome: EncyclopediaAbsent}
	}

	page, err := s.page(ctx, disease)
	if err == nil {
		return EncyclopediaResult{Info: pageInfo(page), Outcome: EncyclopediaFound}
	}
	if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return failedLookup(disease, err)
	}

	titles, err := s.search(ctx, disease)
	if err != nil {
		return failedLookup(disease, err)
	}
	for _, title := range titles {
		page, err := s.page(ctx, title)
		if err == nil {
			return EncyclopediaResult{Info: pageInfo(page), Outcome: EncyclopediaFound}
		}
		if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return failedLookup(disease, err)
		}
	}

	return EncyclopediaResult{Info: entities.AbsentEncyclopediaInfo(disease), Outcome: EncyclopediaAbsent}
}

func (s *EncyclopediaService) page(ctx context.Context, title string) (*providers.EncyclopediaPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Page(ctx, title)
}

func (s *EncyclopediaService) search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Search(ctx, query, encyclopediaSearchLimit)
}

func failedLookup(disease string, err error) EncyclopediaResult {
	return EncyclopediaResult{Info: entities.AbsentEncyclopediaInfo(disease), Outcome: EncyclopediaFailed, Err: err}
}

func pageInfo(page *providers.EncyclopediaPage) *entities.EncyclopediaInfo {
	return &entities.EncyclopediaInfo{
		Title:        page.Title,
		Summary:      utils.TruncateWithEllipsis(strings.TrimSpace(page.Summary), encyclopediaTextLimit),
		Sections:     CollectSections(page.Sections),
		PageURL:      page.FullURL,
		SourceDomain: page.Domain,
		Exists:       true,
	}
}

// CollectSections walks the tree depth-first in document order and returns
// every non-empty section whose title mentions a keyword. A repeated title
// keeps its first position and takes the last text seen.
func CollectSections(sections []*providers.PageSection) entities.Sections {
	found := entities.Sections{}
	for _, section := range sections {
		title := strings.TrimSpace(section.Title)
		text := strings.TrimSpace(section.Text)
		if text != "" && matchesSectionKeyword(title) {
			found = found.Set(title, utils.TruncateWithEllipsis(text, encyclopediaTextLimit))
		}
		if len(section.Sections) > 0 {
			found = found.Merge(CollectSections(section.Sections))
		}
	}
	return found
}

func matchesSectionKeyword(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
