// Package resolver answers questions straight from the résumé without calling an LLM.
package resolver

import (
	"strings"
	"time"

	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/resume"
)

const (
	noticeEnglish = "2 months"
	noticeGerman  = "2 Monate"
	dateLayout    = "02.01.2006"
)

// NoticePhrases are the localised notice answers the resolver emits.
var NoticePhrases = []string{noticeEnglish, noticeGerman}

// Resolver answers factual questions from stored data. Now drives the start-date rule.
type Resolver struct {
	Now func() time.Time
}

// New returns a Resolver on the wall clock.
func New() *Resolver {
	return &Resolver{Now: time.Now}
}

// Result is a direct answer. OK is false when the résumé has nothing to say.
type Result struct {
	Text   string
	Source models.AnswerSource
	OK     bool
}

func direct(text string) Result {
	if text == "" {
		return Result{}
	}
	return Result{Text: text, Source: models.SourceDirect, OK: true}
}

func ruled(text string) Result {
	return Result{Text: text, Source: models.SourceRule, OK: true}
}

// Resolve looks the answer up in the DB-side slice first, then in the session résumé.
// It never invents data: an empty Result is a valid outcome.
func (r *Resolver) Resolve(q string, qt models.QuestionType, rc *resume.Context, db map[string]any) Result {
	if qt.IsNoticeLike() {
		return r.notice(q, qt)
	}

	for _, data := range []map[string]any{db, rc.Structured()} {
		if data == nil {
			continue
		}
		if res := lookup(q, qt, data); res.OK {
			return res
		}
	}
	return Result{}
}

func (r *Resolver) notice(q string, qt models.QuestionType) Result {
	if qt == models.TypeStartDate || asksStartDate(q) {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		return ruled(now().AddDate(0, 2, 0).Format(dateLayout))
	}
	if question.IsGerman(q) {
		return ruled(noticeGerman)
	}
	return ruled(noticeEnglish)
}

func asksStartDate(q string) bool {
	f := question.Fold(q)
	for _, s := range []string{"start", "begin", "eintritt", "anfangen", "beginn", "ab wann"} {
		if strings.Contains(f, s) {
			return true
		}
	}
	return false
}

func lookup(q string, qt models.QuestionType, data map[string]any) Result {
	f := question.Fold(q)

	if lang, ok := question.LanguageIn(q); ok && (qt == models.TypeLanguageLevel || qt == models.TypeLanguages) {
		return direct(languageLevel(data, lang))
	}

	switch qt {
	case models.TypeEmail:
		return direct(field(data, "email", "email_address", "mail"))
	case models.TypePhone:
		if asksCode(f) {
			return direct(country(data))
		}
		return direct(phone(data))
	case models.TypeName:
		return direct(name(data, f))
	case models.TypeVisa:
		return direct(field(data, "visa", "visa_status", "work_permit", "work_authorization", "sponsorship"))
	case models.TypeSalary:
		return direct(field(data, "salary", "salary_expectation", "salary_expectations", "expected_salary", "desired_salary"))
	case models.TypeExperience:
		return direct(skillYears(data, f))
	case models.TypePersonal:
		switch {
		case strings.Contains(f, "citizenship") || strings.Contains(f, "nationality") || strings.Contains(f, "staatsangehorigkeit"):
			return direct(field(data, "citizenship", "nationality"))
		case strings.Contains(f, "country"):
			return direct(country(data))
		case strings.Contains(f, "location") || strings.Contains(f, "city") || strings.Contains(f, "address") || strings.Contains(f, "wohnort"):
			return direct(field(data, "location", "city", "address"))
		case strings.Contains(f, "email"):
			return direct(field(data, "email", "email_address"))
		case strings.Contains(f, "phone"):
			return direct(phone(data))
		case strings.Contains(f, "name"):
			return direct(name(data, f))
		}
	}
	return Result{}
}

func asksCode(folded string) bool {
	return strings.Contains(folded, "code") || strings.Contains(folded, "prefix") || strings.Contains(folded, "vorwahl")
}

func country(data map[string]any) string {
	if c := field(data, "country", "country_name", "location.country", "residence_country"); c != "" {
		return c
	}
	return field(data, "citizenship", "nationality")
}

func phone(data map[string]any) string {
	number := field(data, "phone", "phone_number", "mobile", "telephone")
	if number == "" {
		return ""
	}
	prefix := field(data, "phone_country_code", "phone_prefix", "country_code", "calling_code")
	if prefix != "" && !strings.HasPrefix(number, "+") {
		if !strings.HasPrefix(prefix, "+") {
			prefix = "+" + prefix
		}
		return prefix + " " + number
	}
	return number
}

func name(data map[string]any, folded string) string {
	full := field(data, "full_name", "name")
	parts := strings.Fields(full)
	switch {
	case strings.Contains(folded, "first") || strings.Contains(folded, "given") || strings.Contains(folded, "vorname"):
		if v := field(data, "first_name", "firstname", "given_name"); v != "" {
			return v
		}
		if len(parts) > 0 {
			return parts[0]
		}
	case strings.Contains(folded, "last") || strings.Contains(folded, "family") || strings.Contains(folded, "surname") || strings.Contains(folded, "nachname"):
		if v := field(data, "last_name", "lastname", "family_name", "surname"); v != "" {
			return v
		}
		if len(parts) > 1 {
			return parts[len(parts)-1]
		}
	default:
		if full != "" {
			return full
		}
		first := field(data, "first_name", "firstname", "given_name")
		last := field(data, "last_name", "lastname", "family_name", "surname")
		return strings.TrimSpace(first + " " + last)
	}
	return ""
}

// languageLevel reads either a list of {language, level} entries or a map language -> level.
func languageLevel(data map[string]any, lang string) string {
	switch langs := get(data, "languages").(type) {
	case []any:
		for _, item := range langs {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			n := stringify(get(entry, "language"))
			if n == "" {
				n = stringify(get(entry, "name"))
			}
			if question.SameLanguage(n, lang) {
				for _, k := range []string{"level", "proficiency", "fluency"} {
					if v := stringify(get(entry, k)); v != "" {
						return v
					}
				}
			}
		}
	case map[string]any:
		for k, v := range langs {
			if question.SameLanguage(k, lang) {
				if m, ok := v.(map[string]any); ok {
					return stringify(get(m, "level"))
				}
				return stringify(v)
			}
		}
	}
	return ""
}

// skillYears finds a skill named in the question and returns its recorded years.
func skillYears(data map[string]any, folded string) string {
	switch skills := get(data, "skills").(type) {
	case map[string]any:
		for k, v := range skills {
			if !mentions(folded, k) {
				continue
			}
			if m, ok := v.(map[string]any); ok {
				for _, key := range []string{"experience_years", "years", "years_of_experience"} {
					if y := stringify(get(m, key)); y != "" {
						return y
					}
				}
				continue
			}
			if y := stringify(v); isInteger(y) {
				return y
			}
		}
	case []any:
		for _, item := range skills {
			entry, ok := item.(map[string]any)
			if !ok || !mentions(folded, stringify(get(entry, "name"))) {
				continue
			}
			for _, key := range []string{"experience_years", "years", "years_of_experience"} {
				if y := stringify(get(entry, key)); y != "" {
					return y
				}
			}
		}
	}
	return ""
}

func mentions(folded, skill string) bool {
	s := question.Fold(strings.ReplaceAll(skill, "_", " "))
	if s == "" {
		return false
	}
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == '?' || r == ',' || r == '(' || r == ')' || r == '/'
	}) {
		if w == s {
			return true
		}
	}
	return strings.Contains(folded, " "+s+" ")
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
