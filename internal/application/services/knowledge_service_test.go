package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/domain/entities"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

// memoryKnowledgeRepo mirrors the store's read predicate: rows written at or
// before notBefore are treated as absent but never removed.
type memoryKnowledgeRepo struct {
	mu        sync.Mutex
	rows      map[string]entities.KnowledgeEntry
	lookupErr error
	upsertErr error
	upserts   int
}

func newMemoryKnowledgeRepo() *memoryKnowledgeRepo {
	return &memoryKnowledgeRepo{rows: map[string]entities.KnowledgeEntry{}}
}

func (r *memoryKnowledgeRepo) Lookup(ctx context.Context, disease string, notBefore time.Time) (*entities.KnowledgeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	row, ok := r.rows[disease]
	if !ok || !row.WrittenAt.After(notBefore) {
		return nil, apperrors.NewNotFoundError("no fresh knowledge")
	}
	return &row, nil
}

func (r *memoryKnowledgeRepo) Upsert(ctx context.Context, entry *entities.KnowledgeEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.rows[entry.Disease] = *entry
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestKnowledgeService(repo *memoryKnowledgeRepo) (*KnowledgeService, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewKnowledgeService(repo, nil)
	svc.now = clock.Now
	return svc, clock
}

func TestKnowledgeService_MissComputesAndStoresDefaults(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	svc, _ := newTestKnowledgeService(repo)

	res := svc.GetTreatmentInfo(context.Background(), "Tomato Early Blight")

	assert.Equal(t, KnowledgeComputed, res.Outcome)
	assert.False(t, res.FromCache())
	assert.NoError(t, res.Err)
	assert.Equal(t, DefaultTreatments("Tomato Early Blight"), res.Treatments)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, entities.Source{
		Title:  "Agricultural Knowledge Base - Tomato Early Blight",
		URL:    "https://extension.org",
		Domain: "extension.org",
	}, res.Sources[0])
	assert.Equal(t, 1, repo.upserts)
}

func TestKnowledgeService_RoundTripWithinTTL(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	svc, clock := newTestKnowledgeService(repo)
	ctx := context.Background()

	first := svc.GetTreatmentInfo(ctx, "Apple Scab")
	clock.t = clock.t.Add(23 * time.Hour)
	second := svc.GetTreatmentInfo(ctx, "Apple Scab")

	assert.Equal(t, KnowledgeCacheHit, second.Outcome)
	assert.True(t, second.FromCache())
	assert.Equal(t, first.Treatments, second.Treatments)
	assert.Equal(t, first.Sources, second.Sources)
	assert.Equal(t, 1, repo.upserts)
}

func TestKnowledgeService_ExpiredEntryIsRecomputed(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	svc, clock := newTestKnowledgeService(repo)
	ctx := context.Background()

	svc.GetTreatmentInfo(ctx, "Apple Scab")
	clock.t = clock.t.Add(25 * time.Hour)
	res := svc.GetTreatmentInfo(ctx, "Apple Scab")

	assert.Equal(t, KnowledgeComputed, res.Outcome)
	assert.False(t, res.FromCache())
	assert.Equal(t, DefaultTreatments("Apple Scab"), res.Treatments)
	assert.Equal(t, 2, repo.upserts)
	assert.Equal(t, clock.t, repo.rows["Apple Scab"].WrittenAt)
}

func TestKnowledgeService_ReturnsStoredEntryNotRegenerated(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	svc, clock := newTestKnowledgeService(repo)
	ctx := context.Background()

	svc.GetTreatmentInfo(ctx, "Grape Esca")
	custom := entities.KnowledgeEntry{
		Disease:    "Grape Esca",
		Treatments: []string{"Prune out dead arms"},
		Sources:    []entities.Source{{Title: "Vineyard guide", URL: "https://example.org/esca", Domain: "example.org"}},
		WrittenAt:  clock.t,
	}
	require.NoError(t, repo.Upsert(ctx, &custom))

	res := svc.GetTreatmentInfo(ctx, "Grape Esca")
	assert.Equal(t, KnowledgeCacheHit, res.Outcome)
	assert.Equal(t, custom.Treatments, res.Treatments)
	assert.Equal(t, custom.Sources, res.Sources)
}

func TestKnowledgeService_LookupFailureDegrades(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	repo.lookupErr = apperrors.NewInternalError("failed to get knowledge entry", errors.New("connection refused"))
	svc, _ := newTestKnowledgeService(repo)

	res := svc.GetTreatmentInfo(context.Background(), "Apple Scab")

	assert.Equal(t, KnowledgeDegraded, res.Outcome)
	assert.False(t, res.FromCache())
	assert.Error(t, res.Err)
	assert.Equal(t, DefaultTreatments("Apple Scab"), res.Treatments)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0, repo.upserts)
}

func TestKnowledgeService_WriteFailureDegrades(t *testing.T) {
	repo := newMemoryKnowledgeRepo()
	repo.upsertErr = errors.New("read-only transaction")
	svc, _ := newTestKnowledgeService(repo)

	res := svc.GetTreatmentInfo(context.Background(), "Apple Scab")

	assert.Equal(t, KnowledgeDegraded, res.Outcome)
	assert.Empty(t, res.Sources)
	assert.Equal(t, DefaultTreatments("Apple Scab"), res.Treatments)
}

func TestKnowledgeService_NoStore(t *testing.T) {
	svc := NewKnowledgeService(nil, nil)

	res := svc.GetTreatmentInfo(context.Background(), "Corn Healthy")

	assert.Equal(t, KnowledgeDegraded, res.Outcome)
	assert.True(t, apperrors.Is(res.Err, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, genericTreatments, res.Treatments)
}

func TestDefaultTreatments(t *testing.T) {
	assert.Len(t, DefaultTreatments("Tomato Early Blight"), 5)
	assert.Len(t, DefaultTreatments("Potato Late Blight"), 4)
	assert.Len(t, DefaultTreatments("Apple Scab"), 4)
	assert.Len(t, DefaultTreatments("Blueberry Healthy"), 4)
	assert.Len(t, DefaultTreatments("Tomato Healthy"), 4)

	generic := DefaultTreatments("Squash Powdery Mildew")
	require.Len(t, generic, 6)
	assert.Equal(t, "Remove and destroy infected plant parts", generic[0])

	assert.Equal(t, generic, DefaultTreatments("tomato early blight"))

	generic[0] = "mutated"
	assert.Equal(t, "Remove and destroy infected plant parts", DefaultTreatments("Unknown")[0])
}
