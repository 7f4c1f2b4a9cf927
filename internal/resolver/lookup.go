package resolver

import (
	"fmt"
	"strconv"
	"strings"
)

// sections are the blocks a résumé commonly nests personal data under. "" is the top level.
var sections = []string{"", "personal", "personal_information", "personal_info", "contact", "basics", "preferences"}

// field returns the first non-empty value among names, searched in every section.
func field(data map[string]any, names ...string) string {
	if data == nil {
		return ""
	}
	for _, section := range sections {
		block := data
		if section != "" {
			m, ok := get(data, section).(map[string]any)
			if !ok {
				continue
			}
			block = m
		}
		for _, name := range names {
			if v := stringify(get(block, name)); v != "" {
				return v
			}
		}
	}
	return ""
}

// get resolves a dotted path, matching keys case-insensitively and ignoring "_"/"-"/" ".
func get(data map[string]any, path string) any {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = nil
		want := keyOf(part)
		for k, v := range m {
			if keyOf(k) == want {
				cur = v
				break
			}
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

func keyOf(k string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(k))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int, int64, int32:
		return fmt.Sprint(val)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case map[string]any:
		// location blocks such as {"city": "Berlin", "country": "Germany"}
		var parts []string
		for _, k := range []string{"city", "region", "country"} {
			if s := stringify(get(val, k)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
