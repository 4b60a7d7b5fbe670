package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyHorizon(from time.Time, months int) []time.Time {
	horizon := make([]time.Time, 0, months)
	for i := 1; i <= months; i++ {
		horizon = append(horizon, from.AddDate(0, i, 0))
	}
	return horizon
}

// testModel builds a dataset with one percent-bounded indicator on an
// exact linear history (zero residual) plus an optional positive impact
// link.
func testModel(t *testing.T, withLink bool) *dataset.DataModel {
	t.Helper()
	rs := models.RecordSet{
		Observations: []models.Observation{
			{RecordID: "OBS_0001", IndicatorCode: "ACC_OWNERSHIP", Indicator: "Account ownership",
				Pillar: models.PillarAccess, Date: day(2020, 1, 1), Value: 40, Unit: "percent"},
			{RecordID: "OBS_0002", IndicatorCode: "ACC_OWNERSHIP", Indicator: "Account ownership",
				Pillar: models.PillarAccess, Date: day(2022, 1, 1), Value: 44, Unit: "percent"},
			{RecordID: "OBS_0003", IndicatorCode: "ACC_OWNERSHIP", Indicator: "Account ownership",
				Pillar: models.PillarAccess, Date: day(2024, 1, 1), Value: 48, Unit: "percent"},
		},
	}
	if withLink {
		rs.Events = []models.Event{
			{RecordID: "EVT_0001", Date: day(2023, 6, 1), Category: models.CategoryProductLaunch, Label: "Telebirr expansion"},
		}
		rs.Links = []models.ImpactLink{
			{RecordID: "LNK_0001", ParentID: "EVT_0001", IndicatorCode: "ACC_OWNERSHIP",
				Class: models.ImpactDirect, Direction: models.DirectionIncrease, Magnitude: 0.10, LagMonths: 6},
		}
	}
	m, err := dataset.Load(rs)
	if err != nil {
		t.Fatalf("dataset.Load failed: %v", err)
	}
	return m
}

func TestComposeScenarioOrdering(t *testing.T) {
	m := testModel(t, true)
	c := NewComposer(nil)
	horizon := monthlyHorizon(day(2024, 1, 1), 24)

	series := make(map[models.ScenarioName]*models.ForecastSeries)
	for _, name := range []models.ScenarioName{models.ScenarioOptimistic, models.ScenarioBase, models.ScenarioPessimistic} {
		s, err := c.Compose(m, "ACC_OWNERSHIP", horizon, name)
		if err != nil {
			t.Fatalf("Compose(%s) failed: %v", name, err)
		}
		if len(s.Points) != len(horizon) {
			t.Fatalf("Compose(%s) returned %d points, want %d", name, len(s.Points), len(horizon))
		}
		series[name] = s
	}

	// With only positive links in play, the scenarios must stay ordered
	// at every horizon point.
	for i := range horizon {
		opt := series[models.ScenarioOptimistic].Points[i].Value
		base := series[models.ScenarioBase].Points[i].Value
		pess := series[models.ScenarioPessimistic].Points[i].Value
		if opt < base || base < pess {
			t.Errorf("point %d (%s): optimistic %v, base %v, pessimistic %v out of order",
				i, horizon[i].Format("2006-01-02"), opt, base, pess)
		}
	}
}

func TestComposeDeterministic(t *testing.T) {
	m := testModel(t, true)
	c := NewComposer(nil)
	horizon := monthlyHorizon(day(2024, 1, 1), 12)

	first, err := c.Compose(m, "ACC_OWNERSHIP", horizon, models.ScenarioBase)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	second, err := c.Compose(m, "ACC_OWNERSHIP", horizon, models.ScenarioBase)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !reflect.DeepEqual(first.Points, second.Points) {
		t.Error("identical inputs produced different points")
	}
	if !reflect.DeepEqual(first.Trace, second.Trace) {
		t.Error("identical inputs produced different traces")
	}
}

func TestComposeNoImpactsScenariosCoincide(t *testing.T) {
	m := testModel(t, false)
	c := NewComposer(nil)
	horizon := monthlyHorizon(day(2024, 1, 1), 12)

	base, err := c.Compose(m, "ACC_OWNERSHIP", horizon, models.ScenarioBase)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	for _, name := range []models.ScenarioName{models.ScenarioOptimistic, models.ScenarioPessimistic} {
		s, err := c.Compose(m, "ACC_OWNERSHIP", horizon, name)
		if err != nil {
			t.Fatalf("Compose(%s) failed: %v", name, err)
		}
		// Collinear history means zero residual error, so even the
		// widened bounds collapse onto the point estimate.
		if !reflect.DeepEqual(base.Points, s.Points) {
			t.Errorf("%s differs from base with no impact links", name)
		}
	}
}

func TestComposeBoundsRespected(t *testing.T) {
	m := testModel(t, true)
	c := NewComposer(nil)
	horizon := monthlyHorizon(day(2024, 1, 1), 120) // far extrapolation

	s, err := c.Compose(m, "ACC_OWNERSHIP", horizon, models.ScenarioOptimistic)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	for i, p := range s.Points {
		if p.Value < 0 || p.Value > 100 {
			t.Errorf("point %d value %v outside [0, 100]", i, p.Value)
		}
		if p.Lower > p.Value || p.Upper < p.Value {
			t.Errorf("point %d bounds [%v, %v] do not bracket value %v", i, p.Lower, p.Upper, p.Value)
		}
	}
	last := s.Points[len(s.Points)-1]
	if !last.LowConfidence {
		t.Error("10-year extrapolation from a 4-year history should be low confidence")
	}
}

func TestComposeInsufficientData(t *testing.T) {
	rs := models.RecordSet{
		Observations: []models.Observation{
			{RecordID: "OBS_0001", IndicatorCode: "AFF_COST", Indicator: "Cost of transactions",
				Pillar: models.PillarAffordability, Date: day(2024, 1, 1), Value: 2.5, Unit: "percent"},
		},
	}
	m, err := dataset.Load(rs)
	if err != nil {
		t.Fatalf("dataset.Load failed: %v", err)
	}

	c := NewComposer(nil)
	_, err = c.Compose(m, "AFF_COST", monthlyHorizon(day(2024, 1, 1), 12), models.ScenarioBase)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var insufficient *models.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %T: %v", err, err)
	}
}

func TestComposeArgumentErrors(t *testing.T) {
	m := testModel(t, false)
	c := NewComposer(nil)
	horizon := monthlyHorizon(day(2024, 1, 1), 12)

	tests := []struct {
		name     string
		code     string
		horizon  []time.Time
		scenario models.ScenarioName
	}{
		{name: "unknown scenario", code: "ACC_OWNERSHIP", horizon: horizon, scenario: "catastrophic"},
		{name: "unknown indicator", code: "ACC_NOWHERE", horizon: horizon, scenario: models.ScenarioBase},
		{name: "empty horizon", code: "ACC_OWNERSHIP", horizon: nil, scenario: models.ScenarioBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Compose(m, tt.code, tt.horizon, tt.scenario); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TrendModel != models.TrendBestFit {
		t.Errorf("TrendModel = %q, want best_fit", cfg.TrendModel)
	}
	base, ok := cfg.Scenarios[models.ScenarioBase]
	if !ok {
		t.Fatal("base scenario missing")
	}
	if base.PositiveScale != 1 || base.NegativeScale != 1 || base.LagScale != 1 {
		t.Errorf("base scenario must leave stored parameters unchanged, got %+v", base)
	}
	opt := cfg.Scenarios[models.ScenarioOptimistic]
	pess := cfg.Scenarios[models.ScenarioPessimistic]
	if opt.PositiveScale <= 1 || opt.LagScale >= 1 {
		t.Errorf("optimistic should amplify gains and shorten lags, got %+v", opt)
	}
	if pess.NegativeScale <= 1 || pess.LagScale <= 1 {
		t.Errorf("pessimistic should amplify losses and stretch lags, got %+v", pess)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}

	t.Run("overrides merge onto defaults", func(t *testing.T) {
		path := write("override.yaml", `
trend_model: linear
scenarios:
  optimistic:
    positive_scale: 1.5
    negative_scale: 0.5
    lag_scale: 0.5
    uncertainty_widen: 2.0
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.TrendModel != models.TrendLinear {
			t.Errorf("TrendModel = %q, want linear", cfg.TrendModel)
		}
		if got := cfg.Scenarios[models.ScenarioOptimistic].PositiveScale; got != 1.5 {
			t.Errorf("optimistic PositiveScale = %v, want 1.5", got)
		}
		if got := cfg.Scenarios[models.ScenarioBase].PositiveScale; got != 1.0 {
			t.Errorf("base scenario lost its default, PositiveScale = %v", got)
		}
	})

	t.Run("rejects unknown scenario name", func(t *testing.T) {
		path := write("unknown.yaml", `
scenarios:
  apocalyptic:
    positive_scale: 0.1
    negative_scale: 3.0
    lag_scale: 2.0
    uncertainty_widen: 3.0
`)
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for unknown scenario name")
		}
	})

	t.Run("rejects non-positive scales", func(t *testing.T) {
		path := write("badscale.yaml", `
scenarios:
  base:
    positive_scale: 0
    negative_scale: 1.0
    lag_scale: 1.0
    uncertainty_widen: 1.0
`)
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for zero scale")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
