package impact

import (
	"fmt"
	"sort"
	"time"

	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/models"
)

const daysPerMonth = 30.4375

// Params scales the stored impact parameters for one scenario and
// selects the onset shape. The zero ramp is a step function.
type Params struct {
	// PositiveScale multiplies positive magnitudes, NegativeScale
	// multiplies negative ones; both are 1.0 under the base scenario.
	PositiveScale float64
	NegativeScale float64
	// LagScale stretches or shortens lags (optimistic < 1 < pessimistic).
	LagScale float64
	// RampMonths > 0 replaces the step onset with a linear ramp
	// reaching full magnitude over that many months.
	RampMonths int
}

// BaseParams leaves every stored parameter as-is.
func BaseParams() Params {
	return Params{PositiveScale: 1, NegativeScale: 1, LagScale: 1}
}

// Adjustment is the combined additive effect of all impact links
// targeting one indicator, aligned to the horizon. Values are post-cap;
// Contributions keep the raw per-link numbers for traceability.
type Adjustment struct {
	Values        []float64
	Contributions []models.LinkContribution
}

// Resolve collects every impact link targeting the indicator, computes
// each link's time-shifted contribution curve against the baseline, and
// combines them additively. The bound cap is applied after summation so
// that simultaneous effects are never truncated independently.
func Resolve(m *dataset.DataModel, code string, horizon []time.Time, baseline []float64, bound models.BoundKind, p Params) (*Adjustment, error) {
	if len(baseline) != len(horizon) {
		return nil, fmt.Errorf("baseline length %d does not match horizon length %d", len(baseline), len(horizon))
	}

	links := append([]models.ImpactLink(nil), m.Links(code)...)

	adj := &Adjustment{Values: make([]float64, len(horizon))}
	if len(links) == 0 {
		return adj, nil
	}

	type resolved struct {
		link  models.ImpactLink
		event models.Event
	}
	joined := make([]resolved, 0, len(links))
	for _, link := range links {
		ev, ok := m.Event(link.ParentID)
		if !ok {
			// Load validates references; hitting this means the model
			// was constructed outside dataset.Load.
			return nil, &models.InconsistentImpactError{
				LinkID: link.RecordID,
				Reason: "parent event " + link.ParentID + " missing at resolution time",
			}
		}
		joined = append(joined, resolved{link: link, event: ev})
	}
	sort.Slice(joined, func(i, j int) bool {
		if !joined[i].event.Date.Equal(joined[j].event.Date) {
			return joined[i].event.Date.Before(joined[j].event.Date)
		}
		return joined[i].link.RecordID < joined[j].link.RecordID
	})

	for _, r := range joined {
		magnitude := effectiveMagnitude(r.link, p)
		onset := r.event.Date.Add(lagDuration(r.link.LagMonths, p.LagScale))

		contribution := models.LinkContribution{
			LinkID:  r.link.RecordID,
			EventID: r.event.RecordID,
			Values:  make([]float64, len(horizon)),
		}
		for i, t := range horizon {
			ramp := rampFactor(t, onset, p.RampMonths)
			if ramp == 0 {
				continue
			}
			v := baseline[i] * magnitude * ramp
			contribution.Values[i] = v
			adj.Values[i] += v
		}
		adj.Contributions = append(adj.Contributions, contribution)
	}

	// Post-summation cap: the combined adjustment must not push the
	// indicator outside its bound.
	for i := range adj.Values {
		adjusted := bound.Clamp(baseline[i] + adj.Values[i])
		adj.Values[i] = adjusted - baseline[i]
	}

	return adj, nil
}

// effectiveMagnitude applies the scenario scaling to the stored
// magnitude. Mixed-direction links carry a range; the midpoint stands
// in for the point estimate.
func effectiveMagnitude(link models.ImpactLink, p Params) float64 {
	mag := link.Magnitude
	if link.Direction == models.DirectionMixed && (link.MagnitudeLow != 0 || link.MagnitudeHigh != 0) {
		mag = (link.MagnitudeLow + link.MagnitudeHigh) / 2
	}
	if mag >= 0 {
		return mag * p.PositiveScale
	}
	return mag * p.NegativeScale
}

func lagDuration(months int, scale float64) time.Duration {
	days := float64(months) * daysPerMonth * scale
	return time.Duration(days * 24 * float64(time.Hour))
}

// rampFactor is 0 before onset, then either a step to 1 or a linear
// climb over rampMonths.
func rampFactor(t, onset time.Time, rampMonths int) float64 {
	if t.Before(onset) {
		return 0
	}
	if rampMonths <= 0 {
		return 1
	}
	rampDays := float64(rampMonths) * daysPerMonth
	elapsed := t.Sub(onset).Hours() / 24
	if elapsed >= rampDays {
		return 1
	}
	return elapsed / rampDays
}
