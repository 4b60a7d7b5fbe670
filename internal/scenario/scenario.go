package scenario

import (
	"fmt"
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/impact"
	"github.com/mintesinot/fi-forecast/internal/trend"
	"github.com/mintesinot/fi-forecast/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Composer merges the baseline trend with the scaled impact adjustment
// under a named scenario. Composition is a pure function of its inputs:
// identical arguments always produce identical series.
type Composer struct {
	cfg    *Config
	logger zerolog.Logger
}

func NewComposer(cfg *Config) *Composer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Composer{
		cfg:    cfg,
		logger: log.With().Str("component", "scenario_composer").Logger(),
	}
}

// Compose produces the scenario-conditioned forecast for one indicator.
// The point estimate at each horizon date is trend(t) plus the combined
// impact adjustment; confidence bounds propagate the trend fit's
// residual standard error widened by the scenario's factor.
func (c *Composer) Compose(m *dataset.DataModel, code string, horizon []time.Time, name models.ScenarioName) (*models.ForecastSeries, error) {
	if !models.ValidScenarioName(name) {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	params, ok := c.cfg.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q not configured", name)
	}
	if len(horizon) == 0 {
		return nil, fmt.Errorf("empty horizon for indicator %q", code)
	}

	meta, ok := m.Meta(code)
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", code)
	}

	obs := m.Series(code)
	fit, err := trend.Fit(code, obs, c.cfg.TrendModel)
	if err != nil {
		return nil, err
	}

	basePoints := trend.Project(fit, meta.Bound, horizon)
	baseline := make([]float64, len(basePoints))
	for i, p := range basePoints {
		baseline[i] = p.Value
	}

	adj, err := impact.Resolve(m, code, horizon, baseline, meta.Bound, impact.Params{
		PositiveScale: params.PositiveScale,
		NegativeScale: params.NegativeScale,
		LagScale:      params.LagScale,
		RampMonths:    c.cfg.RampMonths,
	})
	if err != nil {
		return nil, err
	}

	widen := params.UncertaintyWiden * fit.ResidualStdErr
	points := make([]models.ForecastPoint, len(horizon))
	for i := range horizon {
		value := meta.Bound.Clamp(baseline[i] + adj.Values[i])
		points[i] = models.ForecastPoint{
			Date:          horizon[i],
			Value:         value,
			Lower:         meta.Bound.Clamp(value - widen),
			Upper:         meta.Bound.Clamp(value + widen),
			LowConfidence: basePoints[i].LowConfidence,
		}
	}

	c.logger.Debug().
		Str("indicator", code).
		Str("scenario", string(name)).
		Str("model", string(fit.Model)).
		Int("links", len(adj.Contributions)).
		Int("horizon", len(horizon)).
		Msg("Composed forecast")

	return &models.ForecastSeries{
		IndicatorCode: code,
		Scenario:      name,
		Model:         fit.Model,
		Points:        points,
		Trace:         adj.Contributions,
	}, nil
}
