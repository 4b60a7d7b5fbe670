package models

import (
	"time"
)

// Pillar is a dimension of financial inclusion being measured.
type Pillar string

const (
	PillarAccess        Pillar = "ACCESS"
	PillarUsage         Pillar = "USAGE"
	PillarAffordability Pillar = "AFFORDABILITY"
	PillarGender        Pillar = "GENDER"
	PillarQuality       Pillar = "QUALITY"
	PillarTrust         Pillar = "TRUST"
	PillarDepth         Pillar = "DEPTH"
)

// ValidPillar reports whether p is one of the closed set of pillars.
func ValidPillar(p Pillar) bool {
	switch p {
	case PillarAccess, PillarUsage, PillarAffordability, PillarGender,
		PillarQuality, PillarTrust, PillarDepth:
		return true
	}
	return false
}

// EventCategory classifies a cataloged event.
type EventCategory string

const (
	CategoryProductLaunch  EventCategory = "product_launch"
	CategoryMarketEntry    EventCategory = "market_entry"
	CategoryPolicy         EventCategory = "policy"
	CategoryRegulation     EventCategory = "regulation"
	CategoryInfrastructure EventCategory = "infrastructure"
	CategoryPartnership    EventCategory = "partnership"
	CategoryMilestone      EventCategory = "milestone"
	CategoryEconomic       EventCategory = "economic"
	CategoryPricing        EventCategory = "pricing"
)

func ValidEventCategory(c EventCategory) bool {
	switch c {
	case CategoryProductLaunch, CategoryMarketEntry, CategoryPolicy,
		CategoryRegulation, CategoryInfrastructure, CategoryPartnership,
		CategoryMilestone, CategoryEconomic, CategoryPricing:
		return true
	}
	return false
}

// ImpactClass describes how an event acts on an indicator.
type ImpactClass string

const (
	ImpactDirect       ImpactClass = "direct"
	ImpactIndirect     ImpactClass = "indirect"
	ImpactEnabling     ImpactClass = "enabling"
	ImpactConstraining ImpactClass = "constraining"
)

func ValidImpactClass(c ImpactClass) bool {
	switch c {
	case ImpactDirect, ImpactIndirect, ImpactEnabling, ImpactConstraining:
		return true
	}
	return false
}

// ImpactDirection is the expected sign of an impact link's effect.
type ImpactDirection string

const (
	DirectionIncrease ImpactDirection = "increase"
	DirectionDecrease ImpactDirection = "decrease"
	DirectionMixed    ImpactDirection = "mixed"
)

func ValidImpactDirection(d ImpactDirection) bool {
	switch d {
	case DirectionIncrease, DirectionDecrease, DirectionMixed:
		return true
	}
	return false
}

// EvidenceBasis tags how an impact estimate was sourced. Display only,
// never used in numeric computation.
type EvidenceBasis string

const (
	EvidenceEmpirical   EvidenceBasis = "empirical"
	EvidenceLiterature  EvidenceBasis = "literature"
	EvidenceTheoretical EvidenceBasis = "theoretical"
)

func ValidEvidenceBasis(e EvidenceBasis) bool {
	switch e {
	case EvidenceEmpirical, EvidenceLiterature, EvidenceTheoretical:
		return true
	}
	return false
}

// Confidence is the data-quality tag carried by source records.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Observation is one measured value of an indicator at a point in time.
// Immutable once loaded.
type Observation struct {
	RecordID      string     `json:"record_id"`
	IndicatorCode string     `json:"indicator_code"`
	Indicator     string     `json:"indicator"` // display name
	Pillar        Pillar     `json:"pillar"`
	Date          time.Time  `json:"observation_date"`
	Value         float64    `json:"value_numeric"`
	Unit          string     `json:"unit"` // "percent", "count", "ratio", ...
	Gender        string     `json:"gender"`
	Location      string     `json:"location"`
	Confidence    Confidence `json:"confidence"`
	SourceType    string     `json:"source_type"`
}

// Event is a cataloged policy/product/market event. Events carry no
// pillar or indicator assignment: their effects are only knowable
// through impact links.
type Event struct {
	RecordID   string        `json:"record_id"`
	Date       time.Time     `json:"event_date"`
	Category   EventCategory `json:"category"`
	Label      string        `json:"label"`
	Confidence Confidence    `json:"confidence"`
	SourceType string        `json:"source_type"`
}

// ImpactLink is a directed, parameterized causal edge from an event to
// an indicator. Magnitude is a signed fraction of the baseline value
// (0.20 means +20%). Mixed-direction links carry a [low, high] range
// instead of a trusted point value.
type ImpactLink struct {
	RecordID      string          `json:"record_id"`
	ParentID      string          `json:"parent_id"` // event record id
	IndicatorCode string          `json:"indicator_code"`
	Pillar        Pillar          `json:"pillar"`
	Class         ImpactClass     `json:"impact_class"`
	Direction     ImpactDirection `json:"impact_direction"`
	Magnitude     float64         `json:"impact_magnitude"`
	MagnitudeLow  float64         `json:"magnitude_low,omitempty"`
	MagnitudeHigh float64         `json:"magnitude_high,omitempty"`
	LagMonths     int             `json:"lag_months"`
	Evidence      EvidenceBasis   `json:"evidence_basis"`
	Confidence    Confidence      `json:"confidence"`
}

// Target is a milestone threshold for an indicator. Used only for
// milestone detection, never for fitting.
type Target struct {
	RecordID      string    `json:"record_id"`
	IndicatorCode string    `json:"indicator_code"`
	Value         float64   `json:"target_value"`
	Date          time.Time `json:"target_date"`
	Pillar        Pillar    `json:"pillar"`
}

// RecordSet is the loader's output: the four record kinds of one
// analysis run, not yet validated.
type RecordSet struct {
	Observations []Observation
	Events       []Event
	Links        []ImpactLink
	Targets      []Target
}

// BoundKind is the clamp applied to projected values of an indicator.
type BoundKind int

const (
	BoundNone        BoundKind = iota
	BoundNonNegative           // counts, volumes: [0, +inf)
	BoundPercent               // percentage series: [0, 100]
)

// Clamp applies the bound to v.
func (b BoundKind) Clamp(v float64) float64 {
	switch b {
	case BoundNonNegative:
		if v < 0 {
			return 0
		}
	case BoundPercent:
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
	}
	return v
}

// IndicatorMeta is derived per indicator code when the dataset loads.
type IndicatorMeta struct {
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Pillar Pillar    `json:"pillar"`
	Unit   string    `json:"unit"`
	Bound  BoundKind `json:"-"`
}
