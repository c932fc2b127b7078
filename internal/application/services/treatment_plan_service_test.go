package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/backend/internal/domain/entities"
)

func TestCategorizeTreatments(t *testing.T) {
	tests := []struct {
		treatment string
		bucket    string
	}{
		{"Remove infected leaves", "immediate"},
		{"Isolate the greenhouse", "immediate"},
		{"Act IMMEDIATELY after rain", "immediate"},
		{"Apply copper fungicide", "short_term"},
		{"Spray neem oil weekly", "short_term"},
		{"Prevent waterlogging", "prevention"},
		{"Practice crop rotation", "prevention"},
		{"Field sanitation after harvest", "prevention"},
		{"Water in the morning", "short_term"},
		{"Apply mulch, then remove debris", "immediate"},
		{"Use mulch to prevent soil splashing", "short_term"},
	}

	for _, tt := range tests {
		t.Run(tt.treatment, func(t *testing.T) {
			steps := CategorizeTreatments([]string{tt.treatment})
			var bucket []string
			switch tt.bucket {
			case "immediate":
				bucket = steps.Immediate
			case "short_term":
				bucket = steps.ShortTerm
			case "prevention":
				bucket = steps.Prevention
			}
			assert.Contains(t, bucket, tt.treatment)
		})
	}
}

func TestCategorizeTreatments_BackfillsEmptyBuckets(t *testing.T) {
	steps := CategorizeTreatments(nil)
	assert.Equal(t, immediateFiller, steps.Immediate)
	assert.Equal(t, shortTermFiller, steps.ShortTerm)
	assert.Equal(t, preventionFiller, steps.Prevention)

	steps = CategorizeTreatments([]string{"Apply fungicide"})
	assert.Equal(t, []string{"Isolate affected plants", "Remove heavily infected leaves"}, steps.Immediate)
	assert.Equal(t, []string{"Apply fungicide"}, steps.ShortTerm)
	assert.NotEmpty(t, steps.Prevention)

	steps.Immediate[0] = "mutated"
	assert.Equal(t, "Isolate affected plants", immediateFiller[0])
}

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary("Apple Scab", 0.8523, "Apple scab is a fungal disease.", []string{
		"Apply fungicides during green tip through petal fall",
		"Rake and destroy fallen leaves in autumn",
		"Prune trees to improve air circulation",
	})

	assert.Equal(t, "Apple Scab detected with 85.2% confidence. Apple scab is a fungal disease. "+
		"Key recommendations include: • Apply fungicides during green tip through petal fall "+
		"• Rake and destroy fallen leaves in autumn", summary)
}

func TestBuildSummary_FallbackAndNoTreatments(t *testing.T) {
	summary := BuildSummary("Corn Healthy", 0.9, "", nil)
	assert.Equal(t, "Corn Healthy detected with 90.0% confidence. Using expert guidance and agricultural best practices.", summary)
}

func TestBuildSummary_RespectsLimits(t *testing.T) {
	longTreatment := strings.Repeat("spray copper ", 20)
	summary := BuildSummary("Tomato Leaf Mold", 0.7, strings.Repeat("humid conditions favour mold ", 40), []string{longTreatment})

	assert.LessOrEqual(t, utf8.RuneCountInString(summary), 800)
	assert.True(t, strings.HasSuffix(summary, "..."))

	short := BuildSummary("Tomato Leaf Mold", 0.7, "Lead.", []string{longTreatment})
	bulletPart := short[strings.Index(short, "• ")+len("• "):]
	assert.LessOrEqual(t, utf8.RuneCountInString(bulletPart), 100)
	assert.True(t, strings.HasSuffix(bulletPart, "..."))
}

func TestBuildDescription(t *testing.T) {
	info := &entities.EncyclopediaInfo{
		Summary: "Lead.",
		Sections: entities.Sections{
			{Title: "Symptoms", Text: "Spots."},
			{Title: "Management", Text: "Rake."},
			{Title: "Control", Text: "Spray."},
		},
	}
	assert.Equal(t, "Symptoms: Spots.\n\nManagement: Rake.", BuildDescription(info, "Apple Scab"))

	info.Sections = entities.Sections{}
	assert.Equal(t, "Lead.", BuildDescription(info, "Apple Scab"))

	assert.Equal(t,
		"Comprehensive management plan for Apple Scab based on agricultural best practices.",
		BuildDescription(entities.AbsentEncyclopediaInfo("Apple Scab"), "Apple Scab"))

	info.Summary = strings.Repeat("word ", 400)
	assert.LessOrEqual(t, utf8.RuneCountInString(BuildDescription(info, "Apple Scab")), 1200)
}

func TestTreatmentPlanComposer_Compose(t *testing.T) {
	generatedAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	composer := &TreatmentPlanComposer{now: func() time.Time { return generatedAt }}
	info := &entities.EncyclopediaInfo{
		Title:   "Alternaria solani",
		Summary: "A fungal pathogen.",
		PageURL: "https://en.wikipedia.org/wiki/Alternaria_solani",
		Exists:  true,
	}

	plan := composer.Compose("Tomato Early Blight", DefaultTreatments("Tomato Early Blight"), nil, 0.91, info)

	assert.Equal(t, []string{"Remove infected leaves and destroy them"}, plan.Steps.Immediate)
	assert.Equal(t, []string{
		"Apply copper-based fungicide every 7-10 days",
		"Use mulch to prevent soil splashing onto leaves",
	}, plan.Steps.ShortTerm)
	assert.Equal(t, []string{
		"Water at the base of plants to avoid wet foliage",
		"Practice crop rotation with non-solanaceous crops",
	}, plan.Steps.Prevention)

	require.Len(t, plan.Recommendations, 3)
	assert.Equal(t, append(append([]string{}, plan.Steps.Immediate...), plan.Steps.ShortTerm...), plan.Recommendations)
	assert.NotContains(t, plan.Recommendations, "Practice crop rotation with non-solanaceous crops")

	assert.Equal(t, "A fungal pathogen.", plan.Description)
	assert.NotNil(t, plan.Sources)
	assert.Equal(t, generatedAt, plan.GeneratedAt)
	assert.Equal(t, "Alternaria solani", plan.WikipediaTitle)
	assert.Equal(t, info.PageURL, plan.WikipediaPage)
	assert.Equal(t, 0.91, plan.Confidence)
	assert.True(t, strings.HasPrefix(plan.Summary, "Tomato Early Blight detected with 91.0% confidence."))
}

func TestTreatmentPlanComposer_NilInfo(t *testing.T) {
	plan := NewTreatmentPlanComposer().Compose("Grape Esca", nil, nil, 0.8, nil)

	assert.Equal(t, "Grape Esca", plan.WikipediaTitle)
	assert.Empty(t, plan.WikipediaPage)
	assert.NotEmpty(t, plan.Steps.Immediate)
	assert.NotEmpty(t, plan.Recommendations)
}
