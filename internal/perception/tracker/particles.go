package tracker

import (
	"math"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/pfilter"
)

// particleScores scores every pair by how well the track's filter, pushed
// towards the sighting, fits it. Each cell carries its own evolved clone.
func (t *Tracker) particleScores(past, next []observe.Body) []cell {
	var cells []cell
	for r, p := range past {
		base, ok := t.filters[p.TrackID]
		if !ok {
			base = t.seedFilter(p)
			t.filters[p.TrackID] = base
		}
		for c, n := range next {
			travel := geometry.Distance(p.Position, n.Position)
			f := base.Clone()
			f.Predict(func(q *pfilter.Particle) {
				dir := math.Atan2(q.State[3], q.State[2])
				q.State[0] += travel * math.Cos(dir)
				q.State[1] += travel * math.Sin(dir)
			})
			target := n.Position
			f.Update(func(q *pfilter.Particle) float64 {
				d := geometry.Distance(geometry.Vec{X: q.State[0], Y: q.State[1]}, target)
				return 1 / math.Max(d, minDistance)
			})
			f.Resample()
			cells = append(cells, cell{row: r, col: c, h: f.Fit() / math.Max(travel, minDistance), filter: f})
		}
	}
	return cells
}

// seedFilter spreads a new track's belief around a sighting.
func (t *Tracker) seedFilter(b observe.Body) *pfilter.Filter {
	f := pfilter.New(4, trackParticles, t.rng)
	err := b.DistanceError
	mu := []float64{b.Position.X, b.Position.Y, 0, 0}
	dev := []float64{err, err, 1, 1}
	if b.HasHeading {
		rad := geometry.Deg2Rad(b.Heading)
		mu[2], mu[3] = math.Cos(rad), math.Sin(rad)
		dev[2], dev[3] = 0.2, 0.2
	}
	f.InitWithBelief(mu, dev)
	return f
}
