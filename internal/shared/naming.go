package shared

import "strings"

// punctuation stripped before name comparison. Mirrors what music services
// tend to vary between catalogues (quotes, brackets, dashes).
const namePunctuation = `'".,!?()[]-:`

// NormalizeName lowercases a name, strips a leading "the", removes common
// punctuation, and collapses runs of whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "the ")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if !strings.ContainsRune(namePunctuation, r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// NamesMatch reports whether two names refer to the same title or artist.
//
// Names match when their normalized forms are equal or one contains the
// other. Containment in either direction tolerates catalogue differences
// like "Album (Deluxe Edition)" vs "Album". Short names can false-positive
// ("eve" is contained in "steve"); callers accept that trade-off.
func NamesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// AnyNameMatches reports whether any candidate name matches the target.
func AnyNameMatches(candidates []string, target string) bool {
	for _, c := range candidates {
		if NamesMatch(c, target) {
			return true
		}
	}
	return false
}
