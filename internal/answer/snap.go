package answer

import (
	"regexp"
	"strings"
	"unicode"

	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/resolver"
)

var (
	reDecimal = regexp.MustCompile(`^\d+[.,]\d+$`)
	reInteger = regexp.MustCompile(`^\d+$`)
	reDate    = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
)

// synonymFamilies group answers the platform renders differently across locales.
var synonymFamilies = [][]string{
	{"germany", "deutschland", "+49"},
	{"united states", "usa", "us", "america", "vereinigte staaten", "+1"},
	{"united kingdom", "uk", "great britain", "england", "grossbritannien", "vereinigtes konigreich", "+44"},
	{"austria", "osterreich", "+43"},
	{"switzerland", "schweiz", "suisse", "+41"},
	{"france", "frankreich", "+33"},
	{"netherlands", "niederlande", "holland", "+31"},
	{"yes", "ja", "true"},
	{"no", "nein", "false"},
}

// Snap maps a free-text answer onto one of options. The result is always one
// of options, except for a bare number on a numeric question that no option contains.
func Snap(ans string, options []string, qt models.QuestionType, q string) string {
	ans = strings.TrimSpace(ans)
	if len(options) == 0 {
		return ans
	}

	if reDecimal.MatchString(ans) || reInteger.MatchString(ans) {
		if opt, ok := optionWithNumber(options, ans); ok {
			return opt
		}
		if qt.IsNumeric() {
			return ans
		}
	}

	folded := question.Fold(ans)

	if qt.IsNoticeLike() || asksNotice(q) {
		for _, phrase := range resolver.NoticePhrases {
			p := question.Fold(phrase)
			if strings.Contains(folded, p) {
				if opt, ok := optionContaining(options, p); ok {
					return opt
				}
			}
		}
		if date := reDate.FindString(ans); date != "" {
			if opt, ok := optionContaining(options, date); ok {
				return opt
			}
		}
	}

	for _, opt := range options {
		if question.Fold(opt) == folded {
			return opt
		}
	}

	if folded != "" {
		for _, opt := range options {
			o := question.Fold(opt)
			if o == "" {
				continue
			}
			if strings.Contains(o, folded) || strings.Contains(folded, o) {
				return opt
			}
		}
	}

	for _, family := range synonymFamilies {
		if !mentionsAny(folded, family) {
			continue
		}
		for _, opt := range options {
			if mentionsAny(question.Fold(opt), family) {
				return opt
			}
		}
	}

	return Fallback(options)
}

// Fallback prefers the second option, since the first is often a placeholder.
func Fallback(options []string) string {
	switch {
	case len(options) >= 2:
		return options[1]
	case len(options) == 1:
		return options[0]
	default:
		return NotAvailable
	}
}

func asksNotice(q string) bool {
	qt := question.Classify(q)
	return qt.IsNoticeLike()
}

func optionWithNumber(options []string, num string) (string, bool) {
	for _, opt := range options {
		if containsWord(opt, num) {
			return opt, true
		}
	}
	return "", false
}

func optionContaining(options []string, needle string) (string, bool) {
	for _, opt := range options {
		if strings.Contains(question.Fold(opt), needle) {
			return opt, true
		}
	}
	return "", false
}

func mentionsAny(s string, words []string) bool {
	for _, w := range words {
		if containsWord(s, w) {
			return true
		}
	}
	return false
}

// containsWord reports whether needle occurs in s without touching letters or digits on either side.
func containsWord(s, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; from <= len(s)-len(needle); {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		if !alnumBefore(s, start) && !alnumAfter(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func alnumBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r := rune(s[i-1])
	return r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func alnumAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r := rune(s[i])
	return r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
