package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
	"github.com/agrisense/backend/pkg/imaging"
)

// Diagnosis is the result of running one uploaded image through the pipeline.
type Diagnosis struct {
	ID         string
	Prediction *entities.Prediction
	Plan       *entities.TreatmentPlan
	CacheUsed  bool
	Timestamp  time.Time
}

// DiseaseInfo is reference material for a named disease, without inference.
type DiseaseInfo struct {
	Disease    string
	Wikipedia  *entities.EncyclopediaInfo
	Treatments []string
	Sources    []entities.Source
	CacheUsed  bool
}

// DiagnosisService sequences preprocessing, prediction, knowledge and
// encyclopedia lookups and plan composition.
type DiagnosisService struct {
	predictor    *PredictionService
	knowledge    *KnowledgeService
	encyclopedia *EncyclopediaService
	composer     *TreatmentPlanComposer
	imageSize    int
	now          func() time.Time
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(
	predictor *PredictionService,
	knowledge *KnowledgeService,
	encyclopedia *EncyclopediaService,
	composer *TreatmentPlanComposer,
) *DiagnosisService {
	return &DiagnosisService{
		predictor:    predictor,
		knowledge:    knowledge,
		encyclopedia: encyclopedia,
		composer:     composer,
		imageSize:    config.ImageSize,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ModelReady reports whether predictions currently come from the model.
func (s *DiagnosisService) ModelReady(ctx context.Context) bool {
	return s.predictor.ModelReady(ctx)
}

// Diagnose runs the full pipeline. Only undecodable images produce an error;
// every downstream failure is absorbed into a degraded but complete answer.
func (s *DiagnosisService) Diagnose(ctx context.Context, image []byte) (*Diagnosis, error) {
	ctx, span := observability.StartSpan(ctx, "diagnosis.Diagnose")
	defer span.End()

	tensor, err := imaging.Preprocess(image, s.imageSize)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	prediction := s.predictor.Predict(ctx, tensor)
	observability.LoggerFromContext(ctx).Info().
		Str("disease", prediction.Label).
		Float64("confidence", prediction.Confidence).
		Bool("demo", prediction.IsDemo()).
		Msg("Predicted disease")

	knowledge, wiki := s.lookup(ctx, prediction.Label)

	plan := s.composer.Compose(prediction.Label, knowledge.Treatments, knowledge.Sources, prediction.Confidence, wiki.Info)

	return &Diagnosis{
		ID:         uuid.New().String(),
		Prediction: prediction,
		Plan:       plan,
		CacheUsed:  knowledge.FromCache(),
		Timestamp:  s.now(),
	}, nil
}

// DiseaseInfo returns stored treatments and encyclopedia content for name.
func (s *DiagnosisService) DiseaseInfo(ctx context.Context, name string) (*DiseaseInfo, error) {
	ctx, span := observability.StartSpan(ctx, "diagnosis.DiseaseInfo")
	defer span.End()

	knowledge, wiki := s.lookup(ctx, name)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &DiseaseInfo{
		Disease:    name,
		Wikipedia:  wiki.Info,
		Treatments: knowledge.Treatments,
		Sources:    knowledge.Sources,
		CacheUsed:  knowledge.FromCache(),
	}, nil
}

// lookup fetches knowledge and encyclopedia content concurrently; both
// calls absorb their own failures.
func (s *DiagnosisService) lookup(ctx context.Context, disease string) (KnowledgeResult, EncyclopediaResult) {
	var (
		knowledge KnowledgeResult
		wiki      EncyclopediaResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		knowledge = s.knowledge.GetTreatmentInfo(gctx, disease)
		return nil
	})
	g.Go(func() error {
		wiki = s.encyclopedia.GetPageInfo(gctx, disease)
		return nil
	})
	_ = g.Wait()

	return knowledge, wiki
}
