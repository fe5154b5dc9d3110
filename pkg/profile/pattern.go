package profile

import (
	"regexp"
	"strings"

	"github.com/datadna/etl-mapper/pkg/model"
)

// patternWindow caps how many non-empty values the classifier inspects
const patternWindow = 50

var (
	reDateISO = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDateDMY = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	reEmail   = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	rePhone   = regexp.MustCompile(`^\d{10,15}$`)
	reNumeric = regexp.MustCompile(`^\d+(\.\d+)?$`)
	reLetter  = regexp.MustCompile(`[A-Za-z]`)
)

// ClassifyPattern infers a coarse semantic type tag from a value sample.
// It inspects up to the first 50 non-null, non-empty values; format-based
// patterns (dates, email, phone, numeric) are only claimed when every value
// in the window conforms, so a single outlier disqualifies the pattern.
func ClassifyPattern(values []string) model.Pattern {
	window := make([]string, 0, patternWindow)
	for _, v := range values {
		if v == "" {
			continue
		}
		window = append(window, v)
		if len(window) == patternWindow {
			break
		}
	}

	if len(window) == 0 {
		return model.PatternUnknown
	}

	switch {
	case allMatch(window, reDateISO):
		return model.PatternDateISO
	case allMatch(window, reDateDMY):
		return model.PatternDateDMY
	case allMatch(window, reEmail):
		return model.PatternEmail
	case allMatch(window, rePhone):
		return model.PatternPhone
	case allMatch(window, reNumeric):
		return model.PatternNumeric
	}

	// Name-like heuristic: mostly alphabetic values with spaces and a
	// non-trivial average length.
	letters, spaces, totalLen := 0, 0, 0
	for _, v := range window {
		if reLetter.MatchString(v) {
			letters++
		}
		if strings.Contains(v, " ") {
			spaces++
		}
		totalLen += len(v)
	}
	n := float64(len(window))
	avgLen := float64(totalLen) / n
	if float64(letters)/n > 0.6 && float64(spaces)/n > 0.15 && avgLen > 4 {
		return model.PatternName
	}

	// Small number of distinct values suggests an enum-like column
	distinct := make(map[string]struct{}, len(window))
	for _, v := range window {
		distinct[v] = struct{}{}
	}
	if len(distinct) <= 20 {
		return model.PatternCategorical
	}

	return model.PatternAlphanumeric
}

func allMatch(values []string, re *regexp.Regexp) bool {
	for _, v := range values {
		if !re.MatchString(v) {
			return false
		}
	}
	return true
}
