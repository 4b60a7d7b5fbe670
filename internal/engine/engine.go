package engine

import (
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/scenario"
	"github.com/mintesinot/fi-forecast/models"
)

// Engine is the single computational entry point combining trend
// estimation, impact resolution and scenario composition. It holds no
// mutable state; a single Engine may serve concurrent callers.
type Engine struct {
	composer *scenario.Composer
}

func New(cfg *scenario.Config) *Engine {
	return &Engine{composer: scenario.NewComposer(cfg)}
}

// Forecast produces the scenario-conditioned series for one indicator.
// An indicator with too little history surfaces InsufficientDataError;
// callers must report "no forecast available" rather than conflate it
// with a low-confidence result.
func (e *Engine) Forecast(m *dataset.DataModel, code string, horizon []time.Time, name models.ScenarioName) (*models.ForecastSeries, error) {
	return e.composer.Compose(m, code, horizon, name)
}

// Milestones reports the first horizon point at which the base-scenario
// point estimate meets or exceeds the target value, or a nil ReachedAt
// when the target stays out of reach within the horizon.
func (e *Engine) Milestones(m *dataset.DataModel, code string, target models.Target, horizon []time.Time) (*models.MilestoneResult, error) {
	series, err := e.composer.Compose(m, code, horizon, models.ScenarioBase)
	if err != nil {
		return nil, err
	}
	result := &models.MilestoneResult{
		IndicatorCode: code,
		TargetID:      target.RecordID,
		TargetValue:   target.Value,
		TargetDate:    target.Date,
	}
	for _, p := range series.Points {
		if p.Value >= target.Value {
			reached := p.Date
			result.ReachedAt = &reached
			break
		}
	}
	return result, nil
}

// MonthlyHorizon builds month-spaced forecast dates starting one month
// after from.
func MonthlyHorizon(from time.Time, months int) []time.Time {
	horizon := make([]time.Time, 0, months)
	for i := 1; i <= months; i++ {
		horizon = append(horizon, from.AddDate(0, i, 0))
	}
	return horizon
}

// YearEndHorizon builds December-31 forecast dates for a range of
// years, the cadence the survey-driven indicators are reported on.
func YearEndHorizon(firstYear, lastYear int) []time.Time {
	var horizon []time.Time
	for y := firstYear; y <= lastYear; y++ {
		horizon = append(horizon, time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC))
	}
	return horizon
}
