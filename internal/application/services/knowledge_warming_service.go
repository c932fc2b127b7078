package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/agrisense/backend/internal/domain/entities"
)

const warmingConcurrency = 4

type treatmentKnowledge interface {
	GetTreatmentInfo(ctx context.Context, disease string) KnowledgeResult
}

// WarmingStats counts knowledge outcomes for one warming pass.
type WarmingStats struct {
	Fresh    int
	Computed int
	Degraded int
}

// KnowledgeWarmingService keeps the knowledge cache populated for every
// classifier label so the first prediction of a disease is a cache hit.
type KnowledgeWarmingService struct {
	knowledge treatmentKnowledge
	diseases  []string
}

// NewKnowledgeWarmingService creates a new knowledge warming service
func NewKnowledgeWarmingService(knowledge treatmentKnowledge) *KnowledgeWarmingService {
	return &KnowledgeWarmingService{
		knowledge: knowledge,
		diseases:  entities.DiseaseClasses,
	}
}

// WarmCache looks up every label, which computes and stores any entry that
// is missing or past its TTL. It returns an error when a label degraded.
func (s *KnowledgeWarmingService) WarmCache(ctx context.Context) (WarmingStats, error) {
	var (
		mu       sync.Mutex
		stats    WarmingStats
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmingConcurrency)
	for _, disease := range s.diseases {
		g.Go(func() error {
			res := s.knowledge.GetTreatmentInfo(gctx, disease)

			mu.Lock()
			defer mu.Unlock()
			switch res.Outcome {
			case KnowledgeCacheHit:
				stats.Fresh++
			case KnowledgeComputed:
				stats.Computed++
			default:
				stats.Degraded++
				if firstErr == nil {
					firstErr = res.Err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if stats.Degraded > 0 {
		return stats, fmt.Errorf("%d of %d diseases degraded: %w", stats.Degraded, len(s.diseases), firstErr)
	}
	return stats, nil
}

// StartPeriodicWarming warms immediately and then every interval until ctx
// is cancelled.
func (s *KnowledgeWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	s.warm(ctx)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping knowledge warming")
				return
			case <-ticker.C:
				s.warm(ctx)
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic knowledge warming")
}

func (s *KnowledgeWarmingService) warm(ctx context.Context) {
	stats, err := s.WarmCache(ctx)
	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Int("fresh", stats.Fresh).
		Int("computed", stats.Computed).
		Int("degraded", stats.Degraded).
		Msg("Knowledge warming pass finished")
}
