package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nconklindev/censo/internal/schema"
)

// maxSuggestDistance bounds fuzzy header matches.
const maxSuggestDistance = 2

// SuggestMapping pre-fills a mapping from source headers. Exact matches on
// the normalized header win; otherwise the closest header within a small edit
// distance is used. Each source column is suggested at most once and every
// target gets an entry.
func SuggestMapping(headers []string, specs []schema.FieldSpec) ColumnMapping {
	mapping := make(ColumnMapping, len(specs))
	used := make(map[string]bool)

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = normalizeHeader(h)
	}

	for _, spec := range specs {
		mapping[spec.Name] = ""
		target := normalizeHeader(spec.Name)
		for i, key := range keys {
			if key != "" && key == target && !used[headers[i]] {
				mapping[spec.Name] = headers[i]
				used[headers[i]] = true
				break
			}
		}
	}

	for _, spec := range specs {
		if mapping[spec.Name] != "" {
			continue
		}
		target := normalizeHeader(spec.Name)
		if len(target) < 4 {
			continue
		}
		best, bestDist := -1, maxSuggestDistance+1
		for i, key := range keys {
			if key == "" || used[headers[i]] {
				continue
			}
			if d := levenshtein(key, target); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			mapping[spec.Name] = headers[best]
			used[headers[best]] = true
		}
	}

	return mapping
}

// normalizeHeader folds case and accents and drops everything that is not a
// letter or digit, so "Data de Admissão" and "data_de_admissao" compare equal.
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}
