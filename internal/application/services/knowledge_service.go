package services

import (
	"context"
	"fmt"
	"time"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/repositories"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

// KnowledgeOutcome tells how a KnowledgeResult was produced.
type KnowledgeOutcome string

const (
	KnowledgeCacheHit KnowledgeOutcome = "cache_hit"
	KnowledgeComputed KnowledgeOutcome = "computed"
	KnowledgeDegraded KnowledgeOutcome = "degraded"
)

// KnowledgeResult is the treatment knowledge for one disease. Err is set only
// for KnowledgeDegraded and is informational; Treatments is always usable.
type KnowledgeResult struct {
	Treatments []string
	Sources    []entities.Source
	Outcome    KnowledgeOutcome
	Err        error
}

// FromCache reports whether the treatments came from a fresh stored entry.
func (r KnowledgeResult) FromCache() bool {
	return r.Outcome == KnowledgeCacheHit
}

var defaultTreatments = map[string][]string{
	"Tomato Early Blight": {
		"Remove infected leaves and destroy them",
		"Apply copper-based fungicide every 7-10 days",
		"Water at the base of plants to avoid wet foliage",
		"Practice crop rotation with non-solanaceous crops",
		"Use mulch to prevent soil splashing onto leaves",
	},
	"Potato Late Blight": {
		"Remove and destroy infected plants immediately",
		"Apply fungicides containing chlorothalonil or mancozeb",
		"Avoid overhead irrigation",
		"Plant certified disease-free seed potatoes",
	},
	"Apple Scab": {
		"Apply fungicides during green tip through petal fall",
		"Rake and destroy fallen leaves in autumn",
		"Prune trees to improve air circulation",
		"Plant scab-resistant apple varieties",
	},
	"Blueberry Healthy": {
		"Maintain soil pH between 4.5 and 5.5",
		"Provide adequate water during fruit development",
		"Apply balanced fertilizer in early spring",
		"Prune annually to maintain plant health",
	},
	"Tomato Healthy": {
		"Maintain consistent watering schedule",
		"Ensure proper spacing for air circulation",
		"Monitor regularly for early signs of disease",
		"Practice crop rotation",
	},
}

var genericTreatments = []string{
	"Remove and destroy infected plant parts",
	"Apply appropriate fungicides following label instructions",
	"Improve air circulation through proper spacing",
	"Avoid overhead watering to reduce leaf wetness",
	"Practice crop rotation and field sanitation",
	"Monitor plants regularly for early detection",
}

// DefaultTreatments returns the built-in checklist for disease, matched by
// exact name, or the generic checklist. The result is a fresh copy.
func DefaultTreatments(disease string) []string {
	src, ok := defaultTreatments[disease]
	if !ok {
		src = genericTreatments
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func placeholderSource(disease string) entities.Source {
	return entities.Source{
		Title:  fmt.Sprintf("Agricultural Knowledge Base - %s", disease),
		URL:    "https://extension.org",
		Domain: "extension.org",
	}
}

// KnowledgeService serves treatments from the knowledge store, computing and
// storing defaults on a miss.
type KnowledgeService struct {
	repo    repositories.KnowledgeRepository
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
}

// NewKnowledgeService creates a new knowledge service. repo may be nil when
// storage is not configured; every call then degrades to defaults.
func NewKnowledgeService(repo repositories.KnowledgeRepository, metrics *observability.Metrics) *KnowledgeService {
	return &KnowledgeService{
		repo:    repo,
		ttl:     config.KnowledgeCacheTTL,
		now:     func() time.Time { return time.Now().UTC() },
		metrics: metrics,
	}
}

// GetTreatmentInfo returns treatments for disease. Storage problems never
// surface as errors; they produce a KnowledgeDegraded result.
func (s *KnowledgeService) GetTreatmentInfo(ctx context.Context, disease string) KnowledgeResult {
	logger := observability.LoggerFromContext(ctx)

	if s.repo == nil {
		return degradedKnowledge(disease, apperrors.NewUnavailableError("knowledge store not configured"))
	}

	now := s.now()
	entry, err := s.repo.Lookup(ctx, disease, now.Add(-s.ttl))
	if err == nil {
		observability.RecordCacheHit(ctx, s.metrics, disease)
		logger.Debug().Str("disease", disease).Msg("Using cached knowledge")
		sources := entry.Sources
		if sources == nil {
			sources = []entities.Source{}
		}
		return KnowledgeResult{Treatments: entry.Treatments, Sources: sources, Outcome: KnowledgeCacheHit}
	}
	if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		logger.Warn().Err(err).Str("disease", disease).Msg("Knowledge lookup failed, using defaults")
		return degradedKnowledge(disease, err)
	}

	observability.RecordCacheMiss(ctx, s.metrics, disease)
	entry = &entities.KnowledgeEntry{
		Disease:    disease,
		Treatments: DefaultTreatments(disease),
		Sources:    []entities.Source{placeholderSource(disease)},
		WrittenAt:  now,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("disease", disease).Msg("Knowledge write failed, using defaults")
		return degradedKnowledge(disease, err)
	}

	logger.Info().Str("disease", disease).Msg("Cached knowledge")
	return KnowledgeResult{Treatments: entry.Treatments, Sources: entry.Sources, Outcome: KnowledgeComputed}
}

func degradedKnowledge(disease string, err error) KnowledgeResult {
	return KnowledgeResult{
		Treatments: DefaultTreatments(disease),
		Sources:    []entities.Source{},
		Outcome:    KnowledgeDegraded,
		Err:        err,
	}
}
