package providers

import (
	"context"

	"github.com/agrisense/backend/pkg/imaging"
)

// InferenceEngine runs the trained classifier on a preprocessed batch.
type InferenceEngine interface {
	// Classify returns one probability per class label, in classifier order.
	Classify(ctx context.Context, batch *imaging.Tensor) ([]float64, error)

	// Ready reports whether the engine can currently serve predictions.
	Ready(ctx context.Context) error
}
