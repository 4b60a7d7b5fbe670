package models

import (
	"fmt"
)

// SchemaViolationError means an input record is missing or has a
// malformed required field for its kind. Fatal to loading: no partial
// dataset is ever produced.
type SchemaViolationError struct {
	RecordID string
	Kind     string // "observation", "event", "impact_link", "target"
	Field    string
	Reason   string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation in %s %q, field %q: %s",
		e.Kind, e.RecordID, e.Field, e.Reason)
}

// InconsistentImpactError means an impact link contradicts itself or
// the dataset: magnitude sign disagreeing with direction, a positive
// constraining link, or a dangling parent/target reference. Fatal at
// load time; never silently coerced.
type InconsistentImpactError struct {
	LinkID string
	Reason string
}

func (e *InconsistentImpactError) Error() string {
	return fmt.Sprintf("inconsistent impact link %q: %s", e.LinkID, e.Reason)
}

// InsufficientDataError means an indicator lacks enough history to fit
// a trend. Recoverable: the caller decides whether to report "no
// forecast available" or abstain.
type InsufficientDataError struct {
	IndicatorCode string
	Observations  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("indicator %q has %d usable observation(s), need at least 2",
		e.IndicatorCode, e.Observations)
}
