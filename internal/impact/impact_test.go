package impact

import (
	"math"
	"testing"
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// buildModel loads a minimal valid dataset around the given events and
// links, targeting the percent-bounded indicator ACC_MM_ACCOUNT.
func buildModel(t *testing.T, events []models.Event, links []models.ImpactLink) *dataset.DataModel {
	t.Helper()
	rs := models.RecordSet{
		Observations: []models.Observation{
			{RecordID: "OBS_0001", IndicatorCode: "ACC_MM_ACCOUNT", Indicator: "Mobile money account ownership",
				Pillar: models.PillarAccess, Date: day(2021, 1, 1), Value: 4.7, Unit: "percent"},
			{RecordID: "OBS_0002", IndicatorCode: "ACC_MM_ACCOUNT", Indicator: "Mobile money account ownership",
				Pillar: models.PillarAccess, Date: day(2024, 1, 1), Value: 9.45, Unit: "percent"},
		},
		Events: events,
		Links:  links,
	}
	m, err := dataset.Load(rs)
	if err != nil {
		t.Fatalf("dataset.Load failed: %v", err)
	}
	return m
}

func flatBaseline(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestResolveStepOnsetAfterLag(t *testing.T) {
	m := buildModel(t,
		[]models.Event{
			{RecordID: "EVT_0001", Date: day(2023, 8, 1), Category: models.CategoryProductLaunch, Label: "M-PESA market entry"},
		},
		[]models.ImpactLink{
			{RecordID: "LNK_0001", ParentID: "EVT_0001", IndicatorCode: "ACC_MM_ACCOUNT",
				Class: models.ImpactDirect, Direction: models.DirectionIncrease, Magnitude: 0.20, LagMonths: 12},
		},
	)

	// Onset falls 365.25 days after the event, between the July and
	// August 2024 horizon points.
	horizon := []time.Time{day(2024, 6, 1), day(2024, 7, 1), day(2024, 8, 1), day(2024, 9, 1)}
	baseline := flatBaseline(len(horizon), 50)

	adj, err := Resolve(m, "ACC_MM_ACCOUNT", horizon, baseline, models.BoundPercent, BaseParams())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []float64{0, 0, 10, 10} // 50 * 0.20 once active
	for i := range want {
		if !almostEqual(adj.Values[i], want[i]) {
			t.Errorf("adjustment at %s = %v, want %v", horizon[i].Format("2006-01-02"), adj.Values[i], want[i])
		}
	}
	if len(adj.Contributions) != 1 {
		t.Fatalf("got %d contributions, want 1", len(adj.Contributions))
	}
	if adj.Contributions[0].LinkID != "LNK_0001" || adj.Contributions[0].EventID != "EVT_0001" {
		t.Errorf("contribution attributed to %s/%s, want LNK_0001/EVT_0001",
			adj.Contributions[0].LinkID, adj.Contributions[0].EventID)
	}
}

func TestResolveCapAppliesAfterSummation(t *testing.T) {
	m := buildModel(t,
		[]models.Event{
			{RecordID: "EVT_0001", Date: day(2022, 1, 1), Category: models.CategoryPolicy, Label: "Agent banking directive"},
			{RecordID: "EVT_0002", Date: day(2022, 6, 1), Category: models.CategoryMarketEntry, Label: "Second operator licensed"},
		},
		[]models.ImpactLink{
			{RecordID: "LNK_0001", ParentID: "EVT_0001", IndicatorCode: "ACC_MM_ACCOUNT",
				Class: models.ImpactDirect, Direction: models.DirectionIncrease, Magnitude: 0.60},
			{RecordID: "LNK_0002", ParentID: "EVT_0002", IndicatorCode: "ACC_MM_ACCOUNT",
				Class: models.ImpactDirect, Direction: models.DirectionIncrease, Magnitude: 0.60},
		},
	)

	horizon := []time.Time{day(2023, 1, 1)}
	baseline := flatBaseline(1, 80)

	adj, err := Resolve(m, "ACC_MM_ACCOUNT", horizon, baseline, models.BoundPercent, BaseParams())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Raw sum is 80 + 48 + 48 = 176; the cap brings the combined value
	// back to 100, so the net adjustment is 20.
	if !almostEqual(adj.Values[0], 20) {
		t.Errorf("capped adjustment = %v, want 20", adj.Values[0])
	}

	// The trace keeps the uncapped per-link numbers.
	if len(adj.Contributions) != 2 {
		t.Fatalf("got %d contributions, want 2", len(adj.Contributions))
	}
	for _, c := range adj.Contributions {
		if !almostEqual(c.Values[0], 48) {
			t.Errorf("contribution %s = %v, want uncapped 48", c.LinkID, c.Values[0])
		}
	}
}

func TestResolveNoLinks(t *testing.T) {
	m := buildModel(t, nil, nil)

	horizon := []time.Time{day(2024, 6, 1), day(2024, 7, 1)}
	adj, err := Resolve(m, "ACC_MM_ACCOUNT", horizon, flatBaseline(2, 50), models.BoundPercent, BaseParams())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for i, v := range adj.Values {
		if v != 0 {
			t.Errorf("adjustment %d = %v, want 0", i, v)
		}
	}
	if len(adj.Contributions) != 0 {
		t.Errorf("got %d contributions, want none", len(adj.Contributions))
	}
}

func TestResolveBaselineHorizonMismatch(t *testing.T) {
	m := buildModel(t, nil, nil)
	_, err := Resolve(m, "ACC_MM_ACCOUNT", []time.Time{day(2024, 6, 1)}, flatBaseline(3, 50), models.BoundPercent, BaseParams())
	if err == nil {
		t.Fatal("expected length mismatch error, got nil")
	}
}

func TestResolveScenarioScaling(t *testing.T) {
	tests := []struct {
		name      string
		direction models.ImpactDirection
		class     models.ImpactClass
		magnitude float64
		params    Params
		want      float64 // adjustment on a flat baseline of 40
	}{
		{
			name:      "positive scaled up",
			direction: models.DirectionIncrease,
			class:     models.ImpactDirect,
			magnitude: 0.20,
			params:    Params{PositiveScale: 1.25, NegativeScale: 0.75, LagScale: 1},
			want:      40 * 0.20 * 1.25,
		},
		{
			name:      "negative scaled up under pessimistic",
			direction: models.DirectionDecrease,
			class:     models.ImpactConstraining,
			magnitude: -0.20,
			params:    Params{PositiveScale: 0.75, NegativeScale: 1.25, LagScale: 1},
			want:      40 * -0.20 * 1.25,
		},
		{
			name:      "base leaves stored magnitude alone",
			direction: models.DirectionIncrease,
			class:     models.ImpactEnabling,
			magnitude: 0.10,
			params:    BaseParams(),
			want:      40 * 0.10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildModel(t,
				[]models.Event{
					{RecordID: "EVT_0001", Date: day(2022, 1, 1), Category: models.CategoryPolicy, Label: "Test event"},
				},
				[]models.ImpactLink{
					{RecordID: "LNK_0001", ParentID: "EVT_0001", IndicatorCode: "ACC_MM_ACCOUNT",
						Class: tt.class, Direction: tt.direction, Magnitude: tt.magnitude},
				},
			)
			adj, err := Resolve(m, "ACC_MM_ACCOUNT", []time.Time{day(2023, 1, 1)}, flatBaseline(1, 40), models.BoundPercent, tt.params)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if !almostEqual(adj.Values[0], tt.want) {
				t.Errorf("adjustment = %v, want %v", adj.Values[0], tt.want)
			}
		})
	}
}

func TestEffectiveMagnitude(t *testing.T) {
	tests := []struct {
		name   string
		link   models.ImpactLink
		params Params
		want   float64
	}{
		{
			name:   "mixed uses range midpoint",
			link:   models.ImpactLink{Direction: models.DirectionMixed, MagnitudeLow: -0.1, MagnitudeHigh: 0.3},
			params: BaseParams(),
			want:   0.1,
		},
		{
			name:   "mixed midpoint scaled by sign",
			link:   models.ImpactLink{Direction: models.DirectionMixed, MagnitudeLow: -0.3, MagnitudeHigh: 0.1},
			params: Params{PositiveScale: 1.25, NegativeScale: 2, LagScale: 1},
			want:   -0.2,
		},
		{
			name:   "mixed without range falls back to point value",
			link:   models.ImpactLink{Direction: models.DirectionMixed, Magnitude: 0.05},
			params: BaseParams(),
			want:   0.05,
		},
		{
			name:   "increase scaled by positive factor",
			link:   models.ImpactLink{Direction: models.DirectionIncrease, Magnitude: 0.2},
			params: Params{PositiveScale: 1.25, NegativeScale: 0.75, LagScale: 1},
			want:   0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectiveMagnitude(tt.link, tt.params); !almostEqual(got, tt.want) {
				t.Errorf("effectiveMagnitude = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRampFactor(t *testing.T) {
	onset := day(2024, 1, 1)
	tests := []struct {
		name       string
		t          time.Time
		rampMonths int
		want       float64
	}{
		{name: "before onset", t: day(2023, 12, 31), rampMonths: 0, want: 0},
		{name: "step at onset", t: onset, rampMonths: 0, want: 1},
		{name: "step after onset", t: day(2025, 1, 1), rampMonths: 0, want: 1},
		{name: "ramp midpoint", t: onset.Add(time.Duration(3 * daysPerMonth * 24 * float64(time.Hour))), rampMonths: 6, want: 0.5},
		{name: "ramp complete", t: onset.AddDate(0, 0, 200), rampMonths: 6, want: 1},
		{name: "ramp before onset still zero", t: day(2023, 6, 1), rampMonths: 6, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rampFactor(tt.t, onset, tt.rampMonths); !almostEqual(got, tt.want) {
				t.Errorf("rampFactor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLagDuration(t *testing.T) {
	if got := lagDuration(0, 1); got != 0 {
		t.Errorf("zero lag = %v, want 0", got)
	}
	want := time.Duration(365.25 * 24 * float64(time.Hour))
	if got := lagDuration(12, 1); got != want {
		t.Errorf("12-month lag = %v, want %v", got, want)
	}
	// Optimistic lag scale shortens the wait.
	if got, limit := lagDuration(12, 0.75), lagDuration(12, 1); got >= limit {
		t.Errorf("scaled lag %v not shorter than %v", got, limit)
	}
}
