package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsLoaded counts catalog records accepted by the dataset
	// layer, by record kind.
	RecordsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fi_forecast",
		Name:      "records_loaded_total",
		Help:      "Number of catalog records loaded, by kind",
	}, []string{"kind"})

	// ForecastsTotal counts composed forecast series by scenario.
	ForecastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fi_forecast",
		Name:      "forecasts_total",
		Help:      "Number of forecast series composed, by scenario",
	}, []string{"scenario"})

	// ForecastErrors counts failed forecast requests by error class.
	ForecastErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fi_forecast",
		Name:      "forecast_errors_total",
		Help:      "Number of failed forecast requests, by error class",
	}, []string{"class"})

	// RequestDuration observes HTTP API handler latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fi_forecast",
		Name:      "http_request_duration_seconds",
		Help:      "Time spent serving API requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)
