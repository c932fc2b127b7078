package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/pkg/utils"
)

const (
	summaryLimit        = 800
	descriptionLimit    = 1200
	keyTreatmentLimit   = 100
	keyTreatmentCount   = 2
	descriptionSections = 2

	fallbackSummary = "Using expert guidance and agricultural best practices."
	bullet          = "• "
)

var (
	immediateKeywords  = []string{"remove", "destroy", "isolate", "immediately"}
	shortTermKeywords  = []string{"apply", "spray", "treat", "use"}
	preventionKeywords = []string{"prevent", "avoid", "rotation", "sanitation"}

	immediateFiller  = []string{"Isolate affected plants", "Remove heavily infected leaves"}
	shortTermFiller  = []string{"Monitor plant health daily", "Apply treatments as needed"}
	preventionFiller = []string{"Water properly", "Maintain good spacing", "Practice sanitation"}
)

// TreatmentPlanComposer assembles the user-facing plan from a prediction,
// stored treatments and encyclopedia content. It holds no state besides the clock.
type TreatmentPlanComposer struct {
	now func() time.Time
}

// NewTreatmentPlanComposer creates a composer using the wall clock.
func NewTreatmentPlanComposer() *TreatmentPlanComposer {
	return &TreatmentPlanComposer{now: func() time.Time { return time.Now().UTC() }}
}

// Compose builds the plan. info may be nil.
func (c *TreatmentPlanComposer) Compose(
	disease string,
	treatments []string,
	sources []entities.Source,
	confidence float64,
	info *entities.EncyclopediaInfo,
) *entities.TreatmentPlan {
	if info == nil {
		info = entities.AbsentEncyclopediaInfo(disease)
	}
	if sources == nil {
		sources = []entities.Source{}
	}

	steps := CategorizeTreatments(treatments)
	recommendations := make([]string, 0, len(steps.Immediate)+len(steps.ShortTerm))
	recommendations = append(recommendations, steps.Immediate...)
	recommendations = append(recommendations, steps.ShortTerm...)

	return &entities.TreatmentPlan{
		Summary:         BuildSummary(disease, confidence, info.Summary, treatments),
		Description:     BuildDescription(info, disease),
		Recommendations: recommendations,
		Sources:         sources,
		Steps:           steps,
		GeneratedAt:     c.now(),
		WikipediaPage:   info.PageURL,
		WikipediaTitle:  info.Title,
		Confidence:      confidence,
	}
}

// BuildSummary states the diagnosis, the reference summary and the first key
// treatments, shortened to the summary limit at a word boundary.
func BuildSummary(disease string, confidence float64, referenceSummary string, treatments []string) string {
	parts := []string{fmt.Sprintf("%s detected with %.1f%% confidence.", disease, confidence*100)}

	if strings.TrimSpace(referenceSummary) != "" {
		parts = append(parts, referenceSummary)
	} else {
		parts = append(parts, fallbackSummary)
	}

	if len(treatments) > 0 {
		parts = append(parts, "Key recommendations include:")
		for i, t := range treatments {
			if i == keyTreatmentCount {
				break
			}
			parts = append(parts, bullet+utils.ShortenAtWord(t, keyTreatmentLimit))
		}
	}

	return utils.ShortenAtWord(strings.Join(parts, " "), summaryLimit)
}

// BuildDescription prefers the first two selected sections, then the
// reference summary, then a generic sentence.
func BuildDescription(info *entities.EncyclopediaInfo, disease string) string {
	var description string
	switch {
	case info != nil && len(info.Sections) > 0:
		n := min(len(info.Sections), descriptionSections)
		parts := make([]string, 0, n)
		for _, sec := range info.Sections[:n] {
			parts = append(parts, sec.Title+": "+sec.Text)
		}
		description = strings.Join(parts, "\n\n")
	case info != nil && info.Summary != "":
		description = info.Summary
	default:
		description = fmt.Sprintf("Comprehensive management plan for %s based on agricultural best practices.", disease)
	}
	return utils.ShortenAtWord(description, descriptionLimit)
}

// CategorizeTreatments buckets each treatment by the first keyword group it
// mentions, defaulting to the short-term plan. Empty buckets get filler steps.
func CategorizeTreatments(treatments []string) entities.CategorizedSteps {
	var steps entities.CategorizedSteps
	for _, t := range treatments {
		lower := strings.ToLower(t)
		switch {
		case containsAny(lower, immediateKeywords):
			steps.Immediate = append(steps.Immediate, t)
		case containsAny(lower, shortTermKeywords):
			steps.ShortTerm = append(steps.ShortTerm, t)
		case containsAny(lower, preventionKeywords):
			steps.Prevention = append(steps.Prevention, t)
		default:
			steps.ShortTerm = append(steps.ShortTerm, t)
		}
	}

	if len(steps.Immediate) == 0 {
		steps.Immediate = append([]string(nil), immediateFiller...)
	}
	if len(steps.ShortTerm) == 0 {
		steps.ShortTerm = append([]string(nil), shortTermFiller...)
	}
	if len(steps.Prevention) == 0 {
		steps.Prevention = append([]string(nil), preventionFiller...)
	}
	return steps
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
