package match

import (
	"strings"

	"github.com/datadna/etl-mapper/pkg/model"
)

// Gate reason codes. Incompatible reasons are surfaced to callers as
// "type_incompatible:<reason>" on the score breakdown.
const (
	GateSamePattern     = "same_pattern"
	GateCompatible      = "compatible"
	GateNumericMismatch = "numeric_mismatch"
	GateDateMismatch    = "date_mismatch"
	GateEmailMismatch   = "email_mismatch"
)

// Compatible decides whether two profiles' inferred patterns are semantically
// reconcilable before any scoring is attempted. It is a cheap pre-filter over
// the already-computed pattern tags; sample values are never re-inspected.
func Compatible(p1, p2 model.ColumnProfile) (bool, string) {
	a := model.Pattern(strings.ToUpper(string(p1.Pattern)))
	b := model.Pattern(strings.ToUpper(string(p2.Pattern)))

	// Identical explicit patterns are compatible; ALPHANUMERIC and UNKNOWN
	// are catch-alls and prove nothing on their own.
	if a == b && a != model.PatternAlphanumeric && a != model.PatternUnknown {
		return true, GateSamePattern
	}

	if a.IsNumericLike() != b.IsNumericLike() {
		return false, GateNumericMismatch
	}

	if a.IsDateLike() != b.IsDateLike() {
		return false, GateDateMismatch
	}

	if (a == model.PatternEmail) != (b == model.PatternEmail) {
		return false, GateEmailMismatch
	}

	return true, GateCompatible
}
