package resume

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// Render walks the structured résumé depth-first and prints one property per line.
// Keys are sorted so the same input always renders byte-identical text.
//
//	PERSONAL:
//	  FIRST NAME: Ada
//	LANGUAGES:
//	  - LANGUAGE: English
//	    LEVEL: C2
func Render(data map[string]any) string {
	var b strings.Builder
	writeMap(&b, data, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeMap(b *strings.Builder, m map[string]any, depth int) {
	for _, k := range sortedKeys(m) {
		writeEntry(b, indent(depth), formatKey(k), m[k], depth)
	}
}

func writeEntry(b *strings.Builder, prefix, key string, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		b.WriteString(prefix + key + ":\n")
		writeMap(b, val, depth+1)
	case []any:
		b.WriteString(prefix + key + ":\n")
		writeList(b, val, depth+1)
	default:
		b.WriteString(prefix + key + ": " + scalar(val) + "\n")
	}
}

func writeList(b *strings.Builder, items []any, depth int) {
	for _, item := range items {
		switch val := item.(type) {
		case map[string]any:
			keys := sortedKeys(val)
			if len(keys) == 0 {
				b.WriteString(indent(depth) + "-\n")
				continue
			}
			for i, k := range keys {
				prefix := indent(depth) + "  "
				if i == 0 {
					prefix = indent(depth) + "- "
				}
				writeEntry(b, prefix, formatKey(k), val[k], depth+1)
			}
		case []any:
			b.WriteString(indent(depth) + "-\n")
			writeList(b, val, depth+1)
		default:
			b.WriteString(indent(depth) + "- " + scalar(val) + "\n")
		}
	}
}

func formatKey(k string) string {
	return upper.String(strings.ReplaceAll(k, "_", " "))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
