package scenario

import (
	"fmt"
	"os"

	"github.com/mintesinot/fi-forecast/models"
	"gopkg.in/yaml.v3"
)

// Params is one scenario's pure transform of the stored impact
// parameters plus its uncertainty widening factor.
type Params struct {
	PositiveScale    float64 `yaml:"positive_scale"`
	NegativeScale    float64 `yaml:"negative_scale"`
	LagScale         float64 `yaml:"lag_scale"`
	UncertaintyWiden float64 `yaml:"uncertainty_widen"`
}

// Config holds the scenario parameter sets and shared resolver knobs.
type Config struct {
	// TrendModel selects the baseline model; best_fit lets the
	// estimator choose per indicator.
	TrendModel models.TrendModel `yaml:"trend_model"`
	// RampMonths switches impact onsets from a step to a linear ramp.
	RampMonths int                            `yaml:"ramp_months"`
	Scenarios  map[models.ScenarioName]Params `yaml:"scenarios"`
}

// DefaultConfig returns the compiled-in operating points: base uses
// stored parameters unchanged, optimistic amplifies positive effects
// and shortens lags, pessimistic mirrors it. The exact multipliers are
// configuration, not doctrine; override them in the YAML file.
func DefaultConfig() *Config {
	return &Config{
		TrendModel: models.TrendBestFit,
		RampMonths: 0,
		Scenarios: map[models.ScenarioName]Params{
			models.ScenarioBase: {
				PositiveScale:    1.0,
				NegativeScale:    1.0,
				LagScale:         1.0,
				UncertaintyWiden: 1.0,
			},
			models.ScenarioOptimistic: {
				PositiveScale:    1.25,
				NegativeScale:    0.75,
				LagScale:         0.75,
				UncertaintyWiden: 1.5,
			},
			models.ScenarioPessimistic: {
				PositiveScale:    0.75,
				NegativeScale:    1.25,
				LagScale:         1.25,
				UncertaintyWiden: 1.5,
			},
		},
	}
}

// LoadConfig reads scenario parameters from a YAML file, filling gaps
// with the defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario config: %w", err)
	}
	if cfg.TrendModel == "" {
		cfg.TrendModel = models.TrendBestFit
	}
	for name, p := range cfg.Scenarios {
		if !models.ValidScenarioName(name) {
			return nil, fmt.Errorf("unknown scenario %q in config", name)
		}
		if p.PositiveScale <= 0 || p.NegativeScale <= 0 || p.LagScale <= 0 {
			return nil, fmt.Errorf("scenario %q: scales must be positive", name)
		}
	}
	return cfg, nil
}
