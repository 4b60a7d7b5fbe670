package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/engine"
	"github.com/mintesinot/fi-forecast/models"
	"github.com/rs/zerolog/log"
)

// IndicatorForecast groups one indicator's series across the three
// scenarios.
type IndicatorForecast struct {
	IndicatorCode string                                         `json:"indicator_code"`
	Series        map[models.ScenarioName]*models.ForecastSeries `json:"series"`
	GrowthRates   []models.GrowthRate                            `json:"growth_rates,omitempty"`
}

// Report is the pure aggregation consumed by downstream presentation:
// raw series per scenario, milestone outcomes against targets, and the
// indicators that could not be forecast at all.
type Report struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Horizon     []time.Time                  `json:"horizon"`
	Indicators  map[string]IndicatorForecast `json:"indicators"`
	Milestones  []models.MilestoneResult     `json:"milestones"`
	// Unavailable lists indicators with too little history. Distinct
	// from a low-confidence forecast, which is still a valid series.
	Unavailable []string `json:"unavailable,omitempty"`
}

var scenarios = []models.ScenarioName{
	models.ScenarioOptimistic,
	models.ScenarioBase,
	models.ScenarioPessimistic,
}

// Build forecasts every indicator in the dataset across all three
// scenarios and resolves each target's milestone on the base scenario.
// Insufficient history is recoverable per indicator; any other failure
// aborts the report.
func Build(e *engine.Engine, m *dataset.DataModel, horizon []time.Time) (*Report, error) {
	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		Horizon:     horizon,
		Indicators:  make(map[string]IndicatorForecast),
	}

	for _, code := range m.Indicators() {
		fc := IndicatorForecast{
			IndicatorCode: code,
			Series:        make(map[models.ScenarioName]*models.ForecastSeries, len(scenarios)),
		}
		unavailable := false
		for _, name := range scenarios {
			series, err := e.Forecast(m, code, horizon, name)
			if err != nil {
				var insufficient *models.InsufficientDataError
				if errors.As(err, &insufficient) {
					unavailable = true
					break
				}
				return nil, fmt.Errorf("forecast %s/%s: %w", code, name, err)
			}
			fc.Series[name] = series
		}
		if unavailable {
			rep.Unavailable = append(rep.Unavailable, code)
			log.Warn().Str("indicator", code).Msg("No forecast available, insufficient history")
			continue
		}
		fc.GrowthRates = GrowthRates(m.Series(code))
		rep.Indicators[code] = fc
	}

	for _, target := range m.Targets("") {
		result, err := e.Milestones(m, target.IndicatorCode, target, horizon)
		if err != nil {
			var insufficient *models.InsufficientDataError
			if errors.As(err, &insufficient) {
				continue
			}
			return nil, fmt.Errorf("milestone %s: %w", target.RecordID, err)
		}
		rep.Milestones = append(rep.Milestones, *result)
	}

	return rep, nil
}

// GrowthRates annualizes the change between consecutive observations.
func GrowthRates(obs []models.Observation) []models.GrowthRate {
	if len(obs) < 2 {
		return nil
	}
	rates := make([]models.GrowthRate, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev, curr := obs[i-1], obs[i]
		years := curr.Date.Sub(prev.Date).Hours() / 24 / 365.25
		if years <= 0 {
			continue
		}
		rate := models.GrowthRate{
			Period:       fmt.Sprintf("%d-%d", prev.Date.Year(), curr.Date.Year()),
			Years:        years,
			AbsoluteGain: curr.Value - prev.Value,
			AnnualGain:   (curr.Value - prev.Value) / years,
		}
		if prev.Value != 0 {
			rate.PctPerYear = (curr.Value/prev.Value - 1) * 100 / years
		}
		rates = append(rates, rate)
	}
	return rates
}
