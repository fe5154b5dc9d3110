package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NameSimilarity computes a fuzzy token-set similarity between two column
// names in [0,1]. Names are lowercased and split on non-alphanumeric runs,
// then compared as unordered token sets so reordered words ("date_order" vs
// "order_date") still score 1.0. Returns 0 if either name is empty.
func NameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inter, onlyA, onlyB := partition(ta, tb)

	sect := strings.Join(inter, " ")
	left := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	right := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	// The sorted intersection is a prefix of both combined strings, which
	// makes the best of these three ratios robust to extra tokens on
	// either side.
	best := ratio(left, right)
	if sect != "" {
		if r := ratio(sect, left); r > best {
			best = r
		}
		if r := ratio(sect, right); r > best {
			best = r
		}
	}
	return best
}

func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	return levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

// tokenSet lowercases, splits on non-alphanumeric runs, dedupes and sorts
func tokenSet(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// partition splits two sorted token sets into intersection and the tokens
// unique to each side, preserving sorted order.
func partition(ta, tb []string) (inter, onlyA, onlyB []string) {
	inB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		inB[t] = struct{}{}
	}
	inInter := make(map[string]struct{})
	for _, t := range ta {
		if _, ok := inB[t]; ok {
			inter = append(inter, t)
			inInter[t] = struct{}{}
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if _, ok := inInter[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	return inter, onlyA, onlyB
}
