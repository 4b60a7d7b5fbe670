package dataset

import (
	"sort"
	"strings"

	"github.com/mintesinot/fi-forecast/models"
	"github.com/rs/zerolog/log"
)

// DataModel is the immutable, queryable view of one analysis run's
// records. It is built once by Load and treated as read-only by every
// core computation, so callers may share it across goroutines freely.
type DataModel struct {
	observations map[string][]models.Observation // by indicator code, date-ascending
	events       map[string]models.Event         // by record id
	links        []models.ImpactLink
	linksByCode  map[string][]models.ImpactLink
	targets      []models.Target
	meta         map[string]models.IndicatorMeta
}

// Load validates a record set and builds the data model. Structural
// problems are fatal: a SchemaViolationError or InconsistentImpactError
// aborts the load with no partial result.
func Load(rs models.RecordSet) (*DataModel, error) {
	m := &DataModel{
		observations: make(map[string][]models.Observation),
		events:       make(map[string]models.Event),
		linksByCode:  make(map[string][]models.ImpactLink),
		meta:         make(map[string]models.IndicatorMeta),
	}

	for _, obs := range rs.Observations {
		if err := validateObservation(obs); err != nil {
			return nil, err
		}
		m.observations[obs.IndicatorCode] = append(m.observations[obs.IndicatorCode], obs)
		if _, ok := m.meta[obs.IndicatorCode]; !ok {
			m.meta[obs.IndicatorCode] = models.IndicatorMeta{
				Code:   obs.IndicatorCode,
				Name:   obs.Indicator,
				Pillar: obs.Pillar,
				Unit:   obs.Unit,
				Bound:  boundForUnit(obs.Unit),
			}
		}
	}
	for code := range m.observations {
		series := m.observations[code]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	}

	for _, ev := range rs.Events {
		if err := validateEvent(ev); err != nil {
			return nil, err
		}
		m.events[ev.RecordID] = ev
	}

	for _, tg := range rs.Targets {
		if err := validateTarget(tg); err != nil {
			return nil, err
		}
		m.targets = append(m.targets, tg)
		// Targets may name indicators with no observations yet; they
		// still count as known codes for link resolution.
		if _, ok := m.meta[tg.IndicatorCode]; !ok {
			m.meta[tg.IndicatorCode] = models.IndicatorMeta{
				Code:   tg.IndicatorCode,
				Pillar: tg.Pillar,
				Bound:  models.BoundNonNegative,
			}
		}
	}

	for _, link := range rs.Links {
		if err := validateLink(link); err != nil {
			return nil, err
		}
		if _, ok := m.events[link.ParentID]; !ok {
			return nil, &models.InconsistentImpactError{
				LinkID: link.RecordID,
				Reason: "parent event " + link.ParentID + " does not exist",
			}
		}
		if _, ok := m.meta[link.IndicatorCode]; !ok {
			return nil, &models.InconsistentImpactError{
				LinkID: link.RecordID,
				Reason: "target indicator " + link.IndicatorCode + " does not resolve",
			}
		}
		m.links = append(m.links, link)
		m.linksByCode[link.IndicatorCode] = append(m.linksByCode[link.IndicatorCode], link)
	}

	log.Debug().
		Int("observations", len(rs.Observations)).
		Int("events", len(m.events)).
		Int("links", len(m.links)).
		Int("targets", len(m.targets)).
		Int("indicators", len(m.meta)).
		Msg("Dataset loaded")

	return m, nil
}

// Indicators returns all known indicator codes, sorted.
func (m *DataModel) Indicators() []string {
	codes := make([]string, 0, len(m.meta))
	for code := range m.meta {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Series returns the national all-genders history of an indicator in
// date order. Disaggregated slices (per-gender, per-region) are kept
// out of the fitting series, matching how the source surveys report.
func (m *DataModel) Series(code string) []models.Observation {
	var out []models.Observation
	for _, obs := range m.observations[code] {
		if obs.Gender != "" && obs.Gender != "all" {
			continue
		}
		if obs.Location != "" && obs.Location != "national" {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// Meta returns the derived metadata for an indicator code.
func (m *DataModel) Meta(code string) (models.IndicatorMeta, bool) {
	meta, ok := m.meta[code]
	return meta, ok
}

// Links returns the impact links targeting an indicator.
func (m *DataModel) Links(code string) []models.ImpactLink {
	return m.linksByCode[code]
}

// Event resolves an event by record id.
func (m *DataModel) Event(id string) (models.Event, bool) {
	ev, ok := m.events[id]
	return ev, ok
}

// Targets returns the milestone targets for an indicator, or all
// targets when code is empty.
func (m *DataModel) Targets(code string) []models.Target {
	if code == "" {
		return m.targets
	}
	var out []models.Target
	for _, tg := range m.targets {
		if tg.IndicatorCode == code {
			out = append(out, tg)
		}
	}
	return out
}

func boundForUnit(unit string) models.BoundKind {
	switch strings.ToLower(unit) {
	case "percent", "%", "pct":
		return models.BoundPercent
	case "pp":
		// percentage-point differences (e.g. gender gap) may be negative
		return models.BoundNone
	default:
		return models.BoundNonNegative
	}
}

func validateObservation(obs models.Observation) error {
	kind := "observation"
	if obs.RecordID == "" {
		return &models.SchemaViolationError{Kind: kind, Field: "record_id", Reason: "missing"}
	}
	if obs.IndicatorCode == "" {
		return &models.SchemaViolationError{RecordID: obs.RecordID, Kind: kind, Field: "indicator_code", Reason: "missing"}
	}
	if obs.Date.IsZero() {
		return &models.SchemaViolationError{RecordID: obs.RecordID, Kind: kind, Field: "observation_date", Reason: "missing"}
	}
	if !models.ValidPillar(obs.Pillar) {
		return &models.SchemaViolationError{RecordID: obs.RecordID, Kind: kind, Field: "pillar", Reason: "unknown pillar " + string(obs.Pillar)}
	}
	return nil
}

func validateEvent(ev models.Event) error {
	kind := "event"
	if ev.RecordID == "" {
		return &models.SchemaViolationError{Kind: kind, Field: "record_id", Reason: "missing"}
	}
	if ev.Date.IsZero() {
		return &models.SchemaViolationError{RecordID: ev.RecordID, Kind: kind, Field: "event_date", Reason: "missing"}
	}
	if !models.ValidEventCategory(ev.Category) {
		return &models.SchemaViolationError{RecordID: ev.RecordID, Kind: kind, Field: "category", Reason: "unknown category " + string(ev.Category)}
	}
	if ev.Label == "" {
		return &models.SchemaViolationError{RecordID: ev.RecordID, Kind: kind, Field: "label", Reason: "missing"}
	}
	return nil
}

func validateTarget(tg models.Target) error {
	kind := "target"
	if tg.RecordID == "" {
		return &models.SchemaViolationError{Kind: kind, Field: "record_id", Reason: "missing"}
	}
	if tg.IndicatorCode == "" {
		return &models.SchemaViolationError{RecordID: tg.RecordID, Kind: kind, Field: "indicator_code", Reason: "missing"}
	}
	if tg.Date.IsZero() {
		return &models.SchemaViolationError{RecordID: tg.RecordID, Kind: kind, Field: "target_date", Reason: "missing"}
	}
	return nil
}

func validateLink(link models.ImpactLink) error {
	kind := "impact_link"
	if link.RecordID == "" {
		return &models.SchemaViolationError{Kind: kind, Field: "record_id", Reason: "missing"}
	}
	if link.ParentID == "" {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "parent_id", Reason: "missing"}
	}
	if link.IndicatorCode == "" {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "indicator_code", Reason: "missing"}
	}
	if !models.ValidImpactClass(link.Class) {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "impact_class", Reason: "unknown class " + string(link.Class)}
	}
	if !models.ValidImpactDirection(link.Direction) {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "impact_direction", Reason: "unknown direction " + string(link.Direction)}
	}
	if link.Evidence != "" && !models.ValidEvidenceBasis(link.Evidence) {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "evidence_basis", Reason: "unknown basis " + string(link.Evidence)}
	}
	if link.LagMonths < 0 {
		return &models.SchemaViolationError{RecordID: link.RecordID, Kind: kind, Field: "lag_months", Reason: "negative lag"}
	}

	// Sign/direction invariants are data-integrity checks, enforced
	// here so resolution never sees a contradictory link.
	switch link.Direction {
	case models.DirectionIncrease:
		if link.Magnitude < 0 {
			return &models.InconsistentImpactError{LinkID: link.RecordID, Reason: "direction=increase with negative magnitude"}
		}
	case models.DirectionDecrease:
		if link.Magnitude > 0 {
			return &models.InconsistentImpactError{LinkID: link.RecordID, Reason: "direction=decrease with positive magnitude"}
		}
	case models.DirectionMixed:
		if link.MagnitudeLow > link.MagnitudeHigh {
			return &models.InconsistentImpactError{LinkID: link.RecordID, Reason: "mixed direction with inverted magnitude range"}
		}
	}
	if link.Class == models.ImpactConstraining && link.Direction != models.DirectionMixed && link.Magnitude > 0 {
		return &models.InconsistentImpactError{LinkID: link.RecordID, Reason: "constraining link with positive magnitude"}
	}
	return nil
}
