package question

import "strings"

// knownLanguages maps folded English and German language names to a canonical English name.
var knownLanguages = map[string]string{
	"english": "English", "englisch": "English",
	"german": "German", "deutsch": "German",
	"french": "French", "franzosisch": "French",
	"spanish": "Spanish", "spanisch": "Spanish",
	"italian": "Italian", "italienisch": "Italian",
	"portuguese": "Portuguese", "portugiesisch": "Portuguese",
	"dutch": "Dutch", "niederlandisch": "Dutch",
	"polish": "Polish", "polnisch": "Polish",
	"russian": "Russian", "russisch": "Russian",
	"turkish": "Turkish", "turkisch": "Turkish",
	"arabic": "Arabic", "arabisch": "Arabic",
	"chinese": "Chinese", "chinesisch": "Chinese", "mandarin": "Chinese",
	"japanese": "Japanese", "japanisch": "Japanese",
	"hindi":     "Hindi",
	"ukrainian": "Ukrainian", "ukrainisch": "Ukrainian",
	"swedish": "Swedish", "schwedisch": "Swedish",
}

// LanguageIn returns the canonical name of the first known language the question mentions.
func LanguageIn(q string) (string, bool) {
	folded := Fold(q)
	for _, w := range reWord.FindAllString(folded, -1) {
		if name, ok := knownLanguages[w]; ok {
			return name, true
		}
	}
	return "", false
}

// SameLanguage compares two language names across English/German spellings.
func SameLanguage(a, b string) bool {
	ca, ok := knownLanguages[Fold(a)]
	if !ok {
		ca = strings.TrimSpace(a)
	}
	cb, ok := knownLanguages[Fold(b)]
	if !ok {
		cb = strings.TrimSpace(b)
	}
	return strings.EqualFold(ca, cb)
}
