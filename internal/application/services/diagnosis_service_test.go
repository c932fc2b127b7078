package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 60, G: uint8(100 + x), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestDiagnosisService(engine *stubEngine, repo *memoryKnowledgeRepo, wiki providers.EncyclopediaProvider) *DiagnosisService {
	var eng providers.InferenceEngine
	if engine != nil {
		eng = engine
	}
	var knowledge *KnowledgeService
	if repo != nil {
		knowledge = NewKnowledgeService(repo, nil)
	} else {
		knowledge = NewKnowledgeService(nil, nil)
	}
	return NewDiagnosisService(
		NewPredictionService(eng, seededRand(42), nil),
		knowledge,
		NewEncyclopediaService(wiki, nil),
		NewTreatmentPlanComposer(),
	)
}

func TestDiagnosisService_DemoEndToEnd(t *testing.T) {
	svc := newTestDiagnosisService(nil, newMemoryKnowledgeRepo(), &fakeEncyclopedia{})

	d, err := svc.Diagnose(context.Background(), leafPNG(t))
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.True(t, d.Prediction.IsDemo())
	assert.Contains(t, entities.DemoDiseases, d.Prediction.Label)
	assert.GreaterOrEqual(t, d.Prediction.Confidence, 0.70)
	assert.LessOrEqual(t, d.Prediction.Confidence, 0.95)
	assert.NotEmpty(t, d.Plan.Recommendations)
	assert.NotEmpty(t, d.Plan.Steps.Immediate)
	assert.False(t, d.CacheUsed)
	assert.Equal(t, d.Prediction.Confidence, d.Plan.Confidence)
	assert.False(t, svc.ModelReady(context.Background()))
}

func TestDiagnosisService_ModelPredictionUsesCacheOnSecondRun(t *testing.T) {
	probs := make([]float64, len(entities.DiseaseClasses))
	probs[entities.DiseaseIndex("Apple Scab")] = 0.97
	repo := newMemoryKnowledgeRepo()
	wiki := &fakeEncyclopedia{pages: map[string]*providers.EncyclopediaPage{
		"Apple Scab": {
			Title:    "Apple scab",
			Summary:  "Apple scab is caused by Venturia inaequalis.",
			FullURL:  "https://en.wikipedia.org/wiki/Apple_scab",
			Domain:   "en.wikipedia.org",
			Sections: []*providers.PageSection{{Title: "Symptoms", Text: "Olive spots."}},
		},
	}}
	svc := newTestDiagnosisService(&stubEngine{probs: probs}, repo, wiki)

	first, err := svc.Diagnose(context.Background(), leafPNG(t))
	require.NoError(t, err)
	second, err := svc.Diagnose(context.Background(), leafPNG(t))
	require.NoError(t, err)

	assert.Equal(t, "Apple Scab", first.Prediction.Label)
	assert.False(t, first.Prediction.IsDemo())
	assert.False(t, first.CacheUsed)
	assert.True(t, second.CacheUsed)
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, "Apple scab", second.Plan.WikipediaTitle)
	assert.Equal(t, "Symptoms: Olive spots.", second.Plan.Description)
	require.Len(t, second.Plan.Sources, 1)
	assert.Equal(t, "extension.org", second.Plan.Sources[0].Domain)
}

func TestDiagnosisService_InvalidImage(t *testing.T) {
	engine := &stubEngine{}
	svc := newTestDiagnosisService(engine, nil, nil)

	_, err := svc.Diagnose(context.Background(), []byte("GIF89a-but-not-really"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidImage))
	assert.Equal(t, 0, engine.calls)
}

func TestDiagnosisService_DiseaseInfo(t *testing.T) {
	svc := newTestDiagnosisService(nil, newMemoryKnowledgeRepo(), &fakeEncyclopedia{})

	info, err := svc.DiseaseInfo(context.Background(), "Tomato Leaf Mold")
	require.NoError(t, err)

	assert.Equal(t, "Tomato Leaf Mold", info.Disease)
	assert.False(t, info.Wikipedia.Exists)
	assert.Equal(t, DefaultTreatments("Tomato Leaf Mold"), info.Treatments)
	require.Len(t, info.Sources, 1)
	assert.False(t, info.CacheUsed)

	again, err := svc.DiseaseInfo(context.Background(), "Tomato Leaf Mold")
	require.NoError(t, err)
	assert.True(t, again.CacheUsed)
}

func TestDiagnosisService_DiseaseInfoCancelled(t *testing.T) {
	svc := newTestDiagnosisService(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DiseaseInfo(ctx, "Apple Scab")
	assert.ErrorIs(t, err, context.Canceled)
}
