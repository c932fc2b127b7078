package database

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/domain/repositories"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
)

// CachedKnowledgeAdapter wraps a KnowledgeRepository with a read-through cache.
// Cached entries carry their own WrittenAt, so a stale hit is filtered with the
// same cutoff the database applies.
type CachedKnowledgeAdapter struct {
	adapter repositories.KnowledgeRepository
	cache   providers.CacheProvider
	now     func() time.Time
}

// NewCachedKnowledgeAdapter creates a new cached knowledge adapter
func NewCachedKnowledgeAdapter(adapter repositories.KnowledgeRepository, cache providers.CacheProvider) *CachedKnowledgeAdapter {
	return &CachedKnowledgeAdapter{
		adapter: adapter,
		cache:   cache,
		now:     time.Now,
	}
}

var _ repositories.KnowledgeRepository = (*CachedKnowledgeAdapter)(nil)

func knowledgeCacheKey(disease string) string {
	return fmt.Sprintf("knowledge:%s", disease)
}

// Lookup serves from cache when a fresh copy is there, otherwise from storage.
func (a *CachedKnowledgeAdapter) Lookup(ctx context.Context, disease string, notBefore time.Time) (*entities.KnowledgeEntry, error) {
	key := knowledgeCacheKey(disease)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var entry entities.KnowledgeEntry
		if err := json.Unmarshal(cached, &entry); err == nil && entry.WrittenAt.After(notBefore) {
			return &entry, nil
		} else if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("disease", disease).Msg("Failed to unmarshal cached knowledge")
		}
	}

	entry, err := a.adapter.Lookup(ctx, disease, notBefore)
	if err != nil {
		return nil, err
	}

	a.store(ctx, entry)
	return entry, nil
}

// Upsert writes through to storage and refreshes the cached copy.
func (a *CachedKnowledgeAdapter) Upsert(ctx context.Context, entry *entities.KnowledgeEntry) error {
	if err := a.adapter.Upsert(ctx, entry); err != nil {
		if entry == nil {
			return err
		}
		if delErr := a.cache.Delete(ctx, knowledgeCacheKey(entry.Disease)); delErr != nil {
			observability.LoggerFromContext(ctx).Warn().Err(delErr).Str("disease", entry.Disease).Msg("Failed to evict knowledge cache")
		}
		return err
	}
	a.store(ctx, entry)
	return nil
}

func (a *CachedKnowledgeAdapter) store(ctx context.Context, entry *entities.KnowledgeEntry) {
	remaining := config.KnowledgeCacheTTL - a.now().Sub(entry.WrittenAt)
	seconds := int(math.Ceil(remaining.Seconds()))
	if seconds <= 0 {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, knowledgeCacheKey(entry.Disease), data, seconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("disease", entry.Disease).Msg("Failed to cache knowledge")
	}
}
