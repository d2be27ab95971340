package scanrules

// SeverityMatchesOverride reports whether a finding's severity matches an
// override's threshold.
//
// A threshold less than or equal to zero is a sentinel meaning "match the
// identical sentinel value": the finding's severity must equal the threshold
// exactly, so an override filed against the 0.0 (log) severity does not also
// capture negative debug severities, and vice versa. A positive threshold
// matches any severity greater than or equal to it.
//
// Null handling for absent arguments is a boundary concern and lives in the
// sqlfunc package: an absent value never matches, an absent threshold always
// does.
func SeverityMatchesOverride(value, threshold float64) bool {
	if threshold <= 0 {
		return value == threshold
	}
	return value >= threshold
}
