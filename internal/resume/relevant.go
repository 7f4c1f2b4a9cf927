package resume

import (
	"slices"
	"strings"

	"go-easyapply-automation/internal/models"
)

var (
	personalSections      = []string{"personal", "personal_information", "personal_info", "contact", "basics"}
	skillSections         = []string{"skills", "technical_skills", "experience", "work_experience", "employment"}
	languageSections      = []string{"languages", "language_skills"}
	educationSections     = []string{"education", "degrees"}
	certificationSections = []string{"certifications", "certificates"}
	preferenceSections    = []string{"preferences", "availability"}
)

// Relevant returns the part of a structured résumé that can answer questions
// of type qt. Top-level scalars are included with the personal block.
// Section keys keep their original spelling. General questions get everything.
func Relevant(structured map[string]any, qt models.QuestionType) map[string]any {
	if structured == nil {
		return map[string]any{}
	}
	data := normalizeMap(structured)

	var sections []string
	switch qt {
	case models.TypePersonal, models.TypeEmail, models.TypePhone, models.TypeName, models.TypeVisa, models.TypeSalary:
		sections = slices.Concat(personalSections, preferenceSections)
	case models.TypeSkills, models.TypeExperience, models.TypeSkillLevel:
		sections = skillSections
	case models.TypeLanguages, models.TypeLanguageLevel:
		sections = languageSections
	case models.TypeEducation, models.TypeDegree, models.TypeDecimal:
		sections = slices.Concat(educationSections, skillSections)
	case models.TypeCertifications:
		sections = certificationSections
	case models.TypeNotice, models.TypeNoticePeriod, models.TypeStartDate:
		sections = slices.Concat(preferenceSections, personalSections)
	default:
		return data
	}

	out := make(map[string]any)
	for key, v := range data {
		if matchesSection(key, sections) {
			out[key] = v
			continue
		}
		if isPersonal(qt) || qt.IsNoticeLike() {
			switch v.(type) {
			case map[string]any, []any:
			default:
				out[key] = v
			}
		}
	}
	return out
}

func isPersonal(qt models.QuestionType) bool {
	switch qt {
	case models.TypePersonal, models.TypeEmail, models.TypePhone, models.TypeName, models.TypeVisa, models.TypeSalary:
		return true
	}
	return false
}

func matchesSection(key string, sections []string) bool {
	k := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(key))
	return slices.Contains(sections, k)
}
