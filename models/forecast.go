package models

import (
	"time"
)

// ScenarioName selects one of the three named operating points.
type ScenarioName string

const (
	ScenarioOptimistic  ScenarioName = "optimistic"
	ScenarioBase        ScenarioName = "base"
	ScenarioPessimistic ScenarioName = "pessimistic"
)

func ValidScenarioName(s ScenarioName) bool {
	switch s {
	case ScenarioOptimistic, ScenarioBase, ScenarioPessimistic:
		return true
	}
	return false
}

// TrendModel identifies the baseline continuation model.
type TrendModel string

const (
	TrendLinear      TrendModel = "linear"
	TrendLogarithmic TrendModel = "logarithmic"
	// TrendBestFit asks the estimator to pick whichever of the two
	// yields the lower error on a held-out point.
	TrendBestFit TrendModel = "best_fit"
)

// TrendFit is a fitted baseline continuation for one indicator.
type TrendFit struct {
	Model          TrendModel `json:"model"` // linear or logarithmic, never best_fit
	Intercept      float64    `json:"intercept"`
	Slope          float64    `json:"slope"`
	ResidualStdErr float64    `json:"residual_std_err"`
	Start          time.Time  `json:"start"`     // first observation
	SpanDays       float64    `json:"span_days"` // first to last observation
	Observations   int        `json:"observations"`
}

// ForecastPoint is one horizon point of a forecast series.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower_bound"`
	Upper float64   `json:"upper_bound"`
	// LowConfidence marks extrapolation beyond twice the historical
	// span. The value is still valid, never rejected.
	LowConfidence bool `json:"low_confidence"`
}

// LinkContribution records, per impact link, the pre-cap adjustment it
// contributed at each horizon point, so a consumer can explain why a
// forecast moved.
type LinkContribution struct {
	LinkID  string    `json:"link_id"`
	EventID string    `json:"event_id"`
	Values  []float64 `json:"values"` // aligned to the horizon
}

// ForecastSeries is the scenario-conditioned forecast of one indicator.
type ForecastSeries struct {
	IndicatorCode string             `json:"indicator_code"`
	Scenario      ScenarioName       `json:"scenario"`
	Model         TrendModel         `json:"model"`
	Points        []ForecastPoint    `json:"points"`
	Trace         []LinkContribution `json:"trace,omitempty"`
}

// MilestoneResult reports when (if ever) the base-scenario projection
// of an indicator first meets a target value within the horizon.
type MilestoneResult struct {
	IndicatorCode string     `json:"indicator_code"`
	TargetID      string     `json:"target_id"`
	TargetValue   float64    `json:"target_value"`
	TargetDate    time.Time  `json:"target_date"`
	ReachedAt     *time.Time `json:"reached_at"` // nil: not reached within horizon
}

// GrowthRate is the annualized growth between two consecutive
// observations of an indicator.
type GrowthRate struct {
	Period       string  `json:"period"` // "2021-2024"
	Years        float64 `json:"years"`
	AbsoluteGain float64 `json:"absolute_gain"`   // in the indicator's unit
	AnnualGain   float64 `json:"annual_gain"`     // per year
	PctPerYear   float64 `json:"pct_growth_year"` // relative % per year
}
