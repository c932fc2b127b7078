package entities

import "math"

// PredictionSource tells where a prediction came from.
type PredictionSource string

const (
	PredictionSourceModel PredictionSource = "model"
	PredictionSourceDemo  PredictionSource = "demo"
)

// LabelProbability pairs a class label with its probability.
type LabelProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// LabelDistribution covers every class label in classifier order.
type LabelDistribution []LabelProbability

// NewLabelDistribution zips probabilities with DiseaseClasses. It returns false
// when the vector length does not match the label set or any score falls
// outside [0,1], as raw logits do.
func NewLabelDistribution(probs []float64) (LabelDistribution, bool) {
	if len(probs) != len(DiseaseClasses) {
		return nil, false
	}
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, false
		}
	}
	dist := make(LabelDistribution, len(probs))
	for i, p := range probs {
		dist[i] = LabelProbability{Label: DiseaseClasses[i], Probability: p}
	}
	return dist, true
}

// Top returns the argmax entry; ties resolve to the earliest label.
func (d LabelDistribution) Top() LabelProbability {
	var best LabelProbability
	for i, lp := range d {
		if i == 0 || lp.Probability > best.Probability {
			best = lp
		}
	}
	return best
}

// Probabilities returns the raw probability vector.
func (d LabelDistribution) Probabilities() []float64 {
	out := make([]float64, len(d))
	for i, lp := range d {
		out[i] = lp.Probability
	}
	return out
}

// Prediction is the outcome of classifying one image.
type Prediction struct {
	Label        string            `json:"label"`
	Confidence   float64           `json:"confidence"`
	Distribution LabelDistribution `json:"probs"`
	Source       PredictionSource  `json:"source"`
}

// IsDemo reports whether the prediction was synthesised by the demo predictor.
func (p *Prediction) IsDemo() bool {
	return p.Source == PredictionSourceDemo
}
