// Package timezone maps free-text contact locations to IANA timezone
// identifiers. Resolution is a pure function over a fixed lookup table so the
// same location always yields the same timezone; the schedule calculator
// depends on that determinism.
package timezone

import (
	"sort"
	"strings"
)

// orderedKeys holds the lookup keys longest-first (ties alphabetical) so
// substring matching is deterministic and the most specific key wins
// ("new york state" before "new york").
var orderedKeys = func() []string {
	keys := make([]string, 0, len(locationTimezones))
	for k := range locationTimezones {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Resolve maps a location string ("Sydney", "Berlin, Germany", "texas") to an
// IANA timezone identifier. Matching order: exact match on the normalized
// string, then word-bounded containment in both directions to tolerate
// compound strings like "Sydney, Australia". Returns ok=false when nothing
// matches; callers apply their configured default.
func Resolve(location string) (tz string, ok bool) {
	normalized := strings.ToLower(strings.TrimSpace(location))
	if normalized == "" {
		return "", false
	}

	if tz, ok := locationTimezones[normalized]; ok {
		return tz, true
	}

	// "Sydney, Australia" contains the key "sydney". Containment is
	// word-bounded so short aliases like "la" or "uk" cannot fire inside
	// unrelated words ("atlantis", "ukraine"); those match exactly only.
	for _, key := range orderedKeys {
		if containsTerm(normalized, key) {
			return locationTimezones[key], true
		}
	}

	// Reverse: a truncated location like "francisco" inside "san francisco".
	if len(normalized) >= 3 {
		for _, key := range orderedKeys {
			if containsTerm(key, normalized) {
				return locationTimezones[key], true
			}
		}
	}

	return "", false
}

// containsTerm reports whether term occurs in s bounded by non-word
// characters (or the string edges) on both sides.
func containsTerm(s, term string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		i += from
		leftOK := i == 0 || !isWordChar(s[i-1])
		rightOK := i+len(term) == len(s) || !isWordChar(s[i+len(term)])
		if leftOK && rightOK {
			return true
		}
		from = i + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// ResolveOrDefault is Resolve with a fallback for unknown locations.
func ResolveOrDefault(location, fallback string) string {
	if tz, ok := Resolve(location); ok {
		return tz
	}
	return fallback
}
