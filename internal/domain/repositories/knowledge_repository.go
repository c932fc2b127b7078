package repositories

import (
	"context"
	"time"

	"github.com/agrisense/backend/internal/domain/entities"
)

// KnowledgeRepository stores treatment knowledge keyed by disease name.
type KnowledgeRepository interface {
	// Lookup returns the entry for disease written after notBefore. Absent or
	// stale rows are reported as a NOT_FOUND AppError.
	Lookup(ctx context.Context, disease string, notBefore time.Time) (*entities.KnowledgeEntry, error)

	// Upsert writes or replaces the entry for entry.Disease.
	Upsert(ctx context.Context, entry *entities.KnowledgeEntry) error
}
