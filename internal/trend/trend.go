package trend

import (
	"math"
	"time"

	"github.com/mintesinot/fi-forecast/models"
)

// Fit estimates a baseline continuation model over one indicator's
// history, independent of events. Observations must be date-ascending
// (the dataset layer guarantees this). At least 2 observations with
// distinct timestamps are required; fewer is an InsufficientDataError
// and the caller decides whether to abstain or report a flat line.
func Fit(code string, obs []models.Observation, model models.TrendModel) (*models.TrendFit, error) {
	distinct := countDistinctDates(obs)
	if distinct < 2 {
		return nil, &models.InsufficientDataError{IndicatorCode: code, Observations: distinct}
	}

	if model == models.TrendBestFit {
		return fitBest(code, obs)
	}

	x, y, start := regressors(obs, model)
	slope, intercept := leastSquares(x, y)
	return &models.TrendFit{
		Model:          model,
		Intercept:      intercept,
		Slope:          slope,
		ResidualStdErr: residualStdErr(x, y, slope, intercept),
		Start:          start,
		SpanDays:       obs[len(obs)-1].Date.Sub(start).Hours() / 24,
		Observations:   len(obs),
	}, nil
}

// fitBest fits both candidate models with the last observation held
// out, keeps whichever predicts it better, then refits the winner on
// the full history. With only 2 points a holdout is meaningless, so
// linear wins by default.
func fitBest(code string, obs []models.Observation) (*models.TrendFit, error) {
	if len(obs) < 3 {
		return Fit(code, obs, models.TrendLinear)
	}

	train, held := obs[:len(obs)-1], obs[len(obs)-1]
	best := models.TrendLinear
	bestErr := math.Inf(1)
	for _, candidate := range []models.TrendModel{models.TrendLinear, models.TrendLogarithmic} {
		fit, err := Fit(code, train, candidate)
		if err != nil {
			continue
		}
		predicted := Evaluate(fit, held.Date)
		if e := math.Abs(predicted - held.Value); e < bestErr {
			bestErr = e
			best = candidate
		}
	}
	return Fit(code, obs, best)
}

// Evaluate returns the raw (unclamped) model value at t.
func Evaluate(fit *models.TrendFit, t time.Time) float64 {
	days := t.Sub(fit.Start).Hours() / 24
	return fit.Intercept + fit.Slope*transform(fit.Model, days)
}

// Project extrapolates the fit over a horizon, clamping to the
// indicator's bound and flagging points beyond twice the historical
// span as low confidence. Out-of-bound values are clamped, never an
// error: forecasting inherently extrapolates.
func Project(fit *models.TrendFit, bound models.BoundKind, horizon []time.Time) []models.ForecastPoint {
	points := make([]models.ForecastPoint, len(horizon))
	for i, t := range horizon {
		days := t.Sub(fit.Start).Hours() / 24
		points[i] = models.ForecastPoint{
			Date:          t,
			Value:         bound.Clamp(fit.Intercept + fit.Slope*transform(fit.Model, days)),
			LowConfidence: days > 2*fit.SpanDays,
		}
	}
	return points
}

func transform(model models.TrendModel, days float64) float64 {
	if model == models.TrendLogarithmic {
		if days < 0 {
			days = 0
		}
		return math.Log1p(days)
	}
	return days
}

func regressors(obs []models.Observation, model models.TrendModel) (x, y []float64, start time.Time) {
	start = obs[0].Date
	x = make([]float64, len(obs))
	y = make([]float64, len(obs))
	for i, o := range obs {
		x[i] = transform(model, o.Date.Sub(start).Hours()/24)
		y[i] = o.Value
	}
	return x, y, start
}

// leastSquares is plain OLS over one regressor.
func leastSquares(x, y []float64) (slope, intercept float64) {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func residualStdErr(x, y []float64, slope, intercept float64) float64 {
	if len(x) <= 2 {
		return 0
	}
	var sse float64
	for i := range x {
		r := y[i] - (intercept + slope*x[i])
		sse += r * r
	}
	return math.Sqrt(sse / float64(len(x)-2))
}

func countDistinctDates(obs []models.Observation) int {
	seen := make(map[time.Time]bool, len(obs))
	for _, o := range obs {
		seen[o.Date] = true
	}
	return len(seen)
}
