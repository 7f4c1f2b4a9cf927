package question

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)
	reWord   = regexp.MustCompile(`\p{L}+`)
)

// Fold lower-cases text and strips diacritics so "Kündigungsfrist" matches "kundigungsfrist".
func Fold(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	return strings.ToLower(reSpaces.ReplaceAllString(strings.TrimSpace(result), " "))
}

// CollapseLabel removes the echoed legend text the board renders twice
// ("Ready to relocate?Ready to relocate?" -> "Ready to relocate?").
func CollapseLabel(label string) string {
	label = strings.TrimSpace(reSpaces.ReplaceAllString(label, " "))
	for size := 1; size <= len(label)/2; size++ {
		unit := strings.TrimSpace(label[:size])
		if unit != "" && unit == strings.TrimSpace(label[size:]) {
			return unit
		}
	}
	return label
}

var germanWords = map[string]bool{
	"sie": true, "ihre": true, "ihr": true, "ihren": true, "wie": true, "wann": true,
	"welche": true, "welcher": true, "haben": true, "konnen": true, "sind": true,
	"der": true, "die": true, "das": true, "und": true, "jahre": true, "jahren": true,
	"erfahrung": true, "bitte": true, "mit": true, "viele": true, "wieviele": true,
	"fruhestens": true, "fruhester": true, "eintritt": true, "kundigungsfrist": true,
	"gehalt": true, "sprechen": true, "kenntnisse": true, "verfugbar": true,
}

// IsGerman reports whether the question reads as German.
func IsGerman(q string) bool {
	if strings.ContainsAny(q, "äöüÄÖÜß") {
		return true
	}
	for _, w := range reWord.FindAllString(Fold(q), -1) {
		if germanWords[w] {
			return true
		}
	}
	return false
}
