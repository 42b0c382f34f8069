package classify

import (
	"strings"
	"unicode"
)

// postFunc transforms a captured value. Returning false drops the value.
type postFunc func(string) (string, bool)

var postProcessors = map[string]postFunc{
	// Host names reported by some drivers carry the trailing dot of an FQDN.
	"strip_dot": func(s string) (string, bool) {
		return strings.TrimSuffix(s, "."), true
	},
	"reject_localhost": func(s string) (string, bool) {
		return s, !strings.Contains(strings.ToLower(s), "localhost")
	},
	"reject_none": func(s string) (string, bool) {
		return s, !strings.EqualFold(s, "none")
	},
	"trim_v": func(s string) (string, bool) {
		if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && unicode.IsDigit(rune(s[1])) {
			return s[1:], true
		}
		return s, true
	},
	"upper": func(s string) (string, bool) {
		return strings.ToUpper(s), true
	},
}

// PostProcessors returns the names of the available per-field transforms, unsorted.
func PostProcessors() []string {
	names := make([]string, 0, len(postProcessors))
	for name := range postProcessors {
		names = append(names, name)
	}
	return names
}

func applyPost(value string, chain []postFunc) (string, bool) {
	for _, fn := range chain {
		var keep bool
		if value, keep = fn(value); !keep {
			return "", false
		}
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
