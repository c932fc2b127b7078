package entities

import "time"

// CategorizedSteps buckets treatments by urgency.
type CategorizedSteps struct {
	Immediate  []string `json:"immediate_steps"`
	ShortTerm  []string `json:"seven_day_plan"`
	Prevention []string `json:"prevention"`
}

// TreatmentPlan is the composed answer for one diagnosed disease.
type TreatmentPlan struct {
	Summary         string           `json:"summary"`
	Description     string           `json:"description"`
	Recommendations []string         `json:"recommendations"`
	Sources         []Source         `json:"sources"`
	Steps           CategorizedSteps `json:"generated_by_agent"`
	GeneratedAt     time.Time        `json:"generated_at"`
	WikipediaPage   string           `json:"wikipedia_page"`
	WikipediaTitle  string           `json:"wikipedia_title"`
	Confidence      float64          `json:"confidence"`
}
