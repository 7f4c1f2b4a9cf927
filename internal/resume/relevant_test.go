package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-easyapply-automation/internal/models"
)

func relevantSample() map[string]any {
	return map[string]any{
		"email":       "ada@example.com",
		"Personal":    map[string]any{"first_name": "Ada"},
		"skills":      map[string]any{"go": map[string]any{"experience_years": float64(5)}},
		"experience":  []any{map[string]any{"company": "Acme"}},
		"languages":   []any{map[string]any{"language": "German", "level": "B2"}},
		"education":   []any{map[string]any{"degree": "MSc"}},
		"preferences": map[string]any{"notice_period": "1 month"},
		"hobbies":     []any{"chess"},
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		qt   models.QuestionType
		keys []string
	}{
		{"personal", models.TypeEmail, []string{"email", "Personal", "preferences"}},
		{"skills", models.TypeSkills, []string{"skills", "experience"}},
		{"experience", models.TypeExperience, []string{"skills", "experience"}},
		{"languages", models.TypeLanguageLevel, []string{"languages"}},
		{"education", models.TypeDegree, []string{"education", "skills", "experience"}},
		{"certifications", models.TypeCertifications, []string{}},
		{"notice", models.TypeNoticePeriod, []string{"email", "Personal", "preferences"}},
		{"general", models.TypeGeneral, []string{"email", "Personal", "skills", "experience", "languages", "education", "preferences", "hobbies"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Relevant(relevantSample(), tt.qt)
			keys := make([]string, 0, len(got))
			for k := range got {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.keys, keys)
		})
	}
}

func TestRelevant_DoesNotAlias(t *testing.T) {
	in := relevantSample()
	got := Relevant(in, models.TypeSkills)
	got["skills"].(map[string]any)["go"] = "changed"

	assert.IsType(t, map[string]any{}, in["skills"].(map[string]any)["go"])
	assert.Empty(t, Relevant(nil, models.TypeSkills))
}
