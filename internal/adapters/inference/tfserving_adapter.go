package inference

import (
	"context"
	"fmt"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/domain/providers"
	"github.com/agrisense/backend/internal/infrastructure/clients/tfserving"
	apperrors "github.com/agrisense/backend/pkg/errors"
	"github.com/agrisense/backend/pkg/imaging"
)

// TFServingAdapter implements InferenceEngine against a TensorFlow Serving model.
type TFServingAdapter struct {
	client tfserving.Client
}

// NewTFServingAdapter creates a new inference adapter
func NewTFServingAdapter(client tfserving.Client) providers.InferenceEngine {
	return &TFServingAdapter{client: client}
}

// Ready succeeds when at least one model version is AVAILABLE.
func (a *TFServingAdapter) Ready(ctx context.Context) error {
	status, err := a.client.GetModelStatus(ctx)
	if err != nil {
		return apperrors.NewExternalError("failed to query model status", err)
	}
	if !status.Available() {
		return apperrors.NewUnavailableError("no model version is available")
	}
	return nil
}

// Classify sends one instance and returns the class probability vector.
func (a *TFServingAdapter) Classify(ctx context.Context, batch *imaging.Tensor) ([]float64, error) {
	if batch == nil {
		return nil, apperrors.NewValidationError("input tensor is required")
	}

	resp, err := a.client.Predict(ctx, tfserving.PredictRequest{
		Instances: []interface{}{batch.Instance()},
	})
	if err != nil {
		return nil, apperrors.NewExternalError("model prediction failed", err)
	}
	if len(resp.Predictions) == 0 {
		return nil, apperrors.NewExternalError("model returned no predictions", nil)
	}

	probs := resp.Predictions[0]
	if len(probs) != len(entities.DiseaseClasses) {
		return nil, apperrors.NewExternalError(
			fmt.Sprintf("model returned %d scores, expected %d", len(probs), len(entities.DiseaseClasses)), nil)
	}
	return probs, nil
}
