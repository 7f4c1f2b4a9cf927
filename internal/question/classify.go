// Package question classifies application questions and decides which fields are left alone.
package question

import (
	"regexp"
	"strings"

	"go-easyapply-automation/internal/models"
)

type rule struct {
	tag   models.QuestionType
	match func(folded string) bool
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var techTokens = map[string]bool{
	"python": true, "java": true, "javascript": true, "typescript": true, "golang": true,
	"react": true, "angular": true, "vue": true, "node": true, "node.js": true,
	"kubernetes": true, "docker": true, "aws": true, "azure": true, "gcp": true,
	"sql": true, "c++": true, "c#": true, ".net": true, "php": true, "ruby": true,
	"rust": true, "kotlin": true, "swift": true, "scala": true, "terraform": true,
	"linux": true, "spark": true, "django": true, "spring": true, "kafka": true,
}

var reTechToken = regexp.MustCompile(`[a-z0-9+#.]+`)

func mentionsTech(folded string) bool {
	for _, tok := range reTechToken.FindAllString(folded, -1) {
		if techTokens[strings.TrimRight(tok, ".")] {
			return true
		}
	}
	return false
}

func mentionsLanguage(folded string) bool {
	if containsAny(folded, "language", "sprach") {
		return true
	}
	_, ok := LanguageIn(folded)
	return ok
}

// rules are evaluated in order; the first match wins. Experience and skills come
// before the contact rules, whose triggers also occur inside words like "smartphone".
var rules = []rule{
	{models.TypeStartDate, func(s string) bool {
		return containsAny(s, "when can you start", "wann konnen sie", "eintrittstermin", "starttermin", "fruhester eintritt")
	}},
	{models.TypeNoticePeriod, func(s string) bool {
		return containsAny(s, "notice period", "kundigungsfrist")
	}},
	{models.TypeSkillLevel, func(s string) bool {
		return containsAny(s, "skill level", "expertise level", "rate your", "kenntnisstand")
	}},
	{models.TypeLanguageLevel, func(s string) bool {
		if containsAny(s, "fluent in", "sprachniveau", "sprachkenntnisse") {
			return true
		}
		return containsAny(s, "level of", "proficiency in", "niveau") && mentionsLanguage(s)
	}},
	{models.TypeDecimal, func(s string) bool {
		return containsAny(s, "decimal", "gpa", "grade point", "notendurchschnitt", "dezimal")
	}},
	{models.TypeDegree, func(s string) bool {
		return containsAny(s, "bachelor", "master", "phd", "doctorate", "diploma", "mba", "diplom")
	}},
	{models.TypeExperience, func(s string) bool {
		return containsAny(s, "years of experience", "years of work experience", "years of professional", "how many years", "berufserfahrung", "jahre erfahrung", "jahren erfahrung", "wie viele jahre")
	}},
	{models.TypeSkills, func(s string) bool {
		return containsAny(s, "skill", "experience", "years", "technology", "programming", "erfahrung", "kenntnisse") ||
			mentionsTech(s)
	}},
	{models.TypeEmail, func(s string) bool {
		return containsAny(s, "email", "e-mail", "mail address", "mailadresse")
	}},
	{models.TypePhone, func(s string) bool {
		return containsAny(s, "phone", "mobile", "telefon", "handynummer", "mobilnummer", "country code", "calling code", "vorwahl")
	}},
	{models.TypeName, func(s string) bool {
		return containsAny(s, "first name", "last name", "full name", "given name", "family name", "surname", "vorname", "nachname", "vollstandiger name")
	}},
	{models.TypeEducation, func(s string) bool {
		return containsAny(s, "education", "degree", "study", "university", "college", "studium", "hochschule", "universitat", "ausbildung")
	}},
	{models.TypeLanguages, func(s string) bool {
		return containsAny(s, "language", "speak", "fluent", "sprache", "sprechen")
	}},
	{models.TypeCertifications, func(s string) bool {
		return containsAny(s, "certification", "certified", "certificate", "zertifi")
	}},
	{models.TypePersonal, func(s string) bool {
		return containsAny(s, "name", "email", "phone", "contact", "location", "address", "city", "citizenship", "nationality", "wohnort", "adresse", "staatsangehorigkeit", "kontakt")
	}},
	{models.TypeVisa, func(s string) bool {
		return containsAny(s, "visa", "sponsorship", "work permit", "authorized to work", "authorised to work", "arbeitserlaubnis", "aufenthaltstitel")
	}},
	{models.TypeSalary, func(s string) bool {
		return containsAny(s, "salary", "compensation", "pay", "expectation", "gehalt", "vergutung")
	}},
	{models.TypeNotice, func(s string) bool {
		return containsAny(s, "notice", "period", "availability", "start date", "verfugbar", "eintritt")
	}},
}

// Classify maps a free-text question to its tag. Unknown questions are general.
func Classify(q string) models.QuestionType {
	folded := Fold(q)
	for _, r := range rules {
		if r.match(folded) {
			return r.tag
		}
	}
	return models.TypeGeneral
}

var samples = map[models.QuestionType]string{
	models.TypePersonal:       "What is your current location?",
	models.TypeEmail:          "What is your email address?",
	models.TypePhone:          "What is your mobile phone number?",
	models.TypeName:           "What is your full name?",
	models.TypeSkills:         "Which programming technologies do you use?",
	models.TypeExperience:     "How many years of experience do you have with Python?",
	models.TypeEducation:      "Which university did you attend?",
	models.TypeLanguages:      "Which languages do you speak?",
	models.TypeLanguageLevel:  "What is your level of German?",
	models.TypeCertifications: "Do you hold any certifications?",
	models.TypeVisa:           "Do you require visa sponsorship?",
	models.TypeSalary:         "What are your salary expectations?",
	models.TypeNotice:         "What is your availability?",
	models.TypeNoticePeriod:   "What is your notice period?",
	models.TypeStartDate:      "When can you start?",
	models.TypeDecimal:        "What is your GPA as a decimal number?",
	models.TypeDegree:         "Do you have a Bachelor's degree?",
	models.TypeSkillLevel:     "What is your skill level in Kubernetes?",
	models.TypeGeneral:        "Are you willing to relocate?",
}

// SampleQuestion returns a canonical question for a tag.
func SampleQuestion(t models.QuestionType) string {
	return samples[t]
}
