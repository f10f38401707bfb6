package csv

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a source header into the snake_case form used for
// column lookup: trimmed, accents removed, lower-cased, runs of spaces and
// dashes collapsed to a single underscore.
//
//	"Order Date"  -> "order_date"
//	"Catégorie"   -> "categorie"
//	"unit-price"  -> "unit_price"
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, drop nonspacing marks, recompose.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '\t':
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		default:
			b.WriteRune(r)
			prevUnderscore = r == '_'
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// dedupeHeaders renames repeated header names the way spreadsheet exports
// are usually read back: the second "x" becomes "x.1", the third "x.2".
// Empty names become "unnamed_<i>".
func dedupeHeaders(cols []string) []string {
	seen := make(map[string]int, len(cols))
	for _, c := range cols {
		seen[c] = 0
	}
	counts := make(map[string]int, len(cols))
	out := make([]string, len(cols))
	for i, c := range cols {
		if c == "" {
			c = "unnamed_" + strconv.Itoa(i)
		}
		n := counts[c]
		counts[c] = n + 1
		if n == 0 {
			out[i] = c
			continue
		}
		cand := c + "." + strconv.Itoa(n)
		for {
			if _, clash := seen[cand]; !clash {
				break
			}
			n++
			cand = c + "." + strconv.Itoa(n)
		}
		seen[cand] = 0
		counts[c] = n + 1
		out[i] = cand
	}
	return out
}
