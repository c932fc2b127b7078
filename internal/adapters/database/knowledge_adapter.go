package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/repositories"
	"github.com/agrisense/backend/internal/infrastructure/clients/postgres"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

const knowledgeTable = "disease_cache"

const createKnowledgeTable = `
	CREATE TABLE IF NOT EXISTS disease_cache (
		disease    TEXT PRIMARY KEY,
		treatments TEXT NOT NULL,
		sources    TEXT NOT NULL DEFAULT '[]',
		written_at TIMESTAMPTZ NOT NULL
	)
`

// KnowledgeAdapter stores treatment knowledge in the disease_cache table.
// Treatments and sources are kept as JSON text; expiry is applied by the
// caller-supplied cutoff in the read predicate, rows are never deleted.
type KnowledgeAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewKnowledgeAdapter creates a new knowledge adapter.
func NewKnowledgeAdapter(client *postgres.Client, metrics *observability.Metrics) *KnowledgeAdapter {
	return &KnowledgeAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

var _ repositories.KnowledgeRepository = (*KnowledgeAdapter)(nil)

// InitSchema creates the cache table when missing.
func (a *KnowledgeAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, createKnowledgeTable); err != nil {
		return apperrors.NewInternalError("failed to create disease_cache table", err)
	}
	return nil
}

// Lookup retrieves the entry for disease written after notBefore.
func (a *KnowledgeAdapter) Lookup(ctx context.Context, disease string, notBefore time.Time) (*entities.KnowledgeEntry, error) {
	query, args, err := a.db.From(knowledgeTable).
		Prepared(true).
		Select("treatments", "sources", "written_at").
		Where(
			goqu.C("disease").Eq(disease),
			goqu.C("written_at").Gt(notBefore),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build knowledge query", err)
	}

	start := time.Now()
	var treatmentsRaw, sourcesRaw []byte
	entry := &entities.KnowledgeEntry{Disease: disease}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&treatmentsRaw, &sourcesRaw, &entry.WrittenAt)
	observability.RecordDBMetric(ctx, a.metrics, "knowledge.lookup", time.Since(start))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no fresh knowledge for %s", disease))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get knowledge entry", err)
	}

	if err := json.Unmarshal(treatmentsRaw, &entry.Treatments); err != nil {
		return nil, apperrors.NewInternalError("failed to decode cached treatments", err)
	}
	entry.Sources = []entities.Source{}
	if len(sourcesRaw) > 0 {
		if err := json.Unmarshal(sourcesRaw, &entry.Sources); err != nil {
			return nil, apperrors.NewInternalError("failed to decode cached sources", err)
		}
	}

	return entry, nil
}

// Upsert inserts or replaces the entry for entry.Disease.
func (a *KnowledgeAdapter) Upsert(ctx context.Context, entry *entities.KnowledgeEntry) error {
	if entry == nil || entry.Disease == "" {
		return apperrors.NewValidationError("knowledge entry with disease is required")
	}

	treatments, err := json.Marshal(nonNilStrings(entry.Treatments))
	if err != nil {
		return apperrors.NewInternalError("failed to encode treatments", err)
	}
	sources := []byte("[]")
	if len(entry.Sources) > 0 {
		if sources, err = json.Marshal(entry.Sources); err != nil {
			return apperrors.NewInternalError("failed to encode sources", err)
		}
	}

	query, args, err := a.db.Insert(knowledgeTable).
		Prepared(true).
		Rows(goqu.Record{
			"disease":    entry.Disease,
			"treatments": string(treatments),
			"sources":    string(sources),
			"written_at": entry.WrittenAt,
		}).
		OnConflict(goqu.DoUpdate("disease", goqu.Record{
			"treatments": goqu.L("EXCLUDED.treatments"),
			"sources":    goqu.L("EXCLUDED.sources"),
			"written_at": goqu.L("EXCLUDED.written_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build knowledge upsert", err)
	}

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "knowledge.upsert", time.Since(start))
	if err != nil {
		return apperrors.NewInternalError("failed to upsert knowledge entry", err)
	}

	return nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
