package selfpose

import (
	"math"
	"math/rand/v2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/pfilter"
)

// beliefDeviation is the spread of a freshly seeded pose belief over
// (x, y, cos, sin).
var beliefDeviation = []float64{5, 5, 0.2, 0.2}

// Particle tracks the pose with a particle filter over
// (x, y, cos(heading), sin(heading)).
type Particle struct {
	filter *pfilter.Filter
	rng    *rand.Rand
}

// NewParticle creates the strategy with n particles.
func NewParticle(n int, rng *rand.Rand) *Particle {
	if rng == nil {
		rng = pfilter.NewRand(0)
	}
	return &Particle{filter: pfilter.New(4, n, rng), rng: rng}
}

func (*Particle) Name() string { return "particlefilter" }

// Seed spreads the belief around pose.
func (s *Particle) Seed(pose geometry.Pose) {
	rad := geometry.Deg2Rad(pose.Heading)
	s.filter.InitWithBelief([]float64{pose.X, pose.Y, math.Cos(rad), math.Sin(rad)}, beliefDeviation)
}

// Filter exposes the underlying particle set.
func (s *Particle) Filter() *pfilter.Filter { return s.filter }

func (s *Particle) noise(spread float64) float64 {
	return 1 + spread*(2*s.rng.Float64()-1)
}

func particleHeading(p *pfilter.Particle) float64 {
	return geometry.Rad2Deg(math.Atan2(p.State[3], p.State[2]))
}

func (s *Particle) Estimate(prev geometry.Pose, motion Motion, landmarks []observe.Landmark) geometry.Pose {
	playerRand := motion.Params.PlayerRand
	s.filter.Predict(func(p *pfilter.Particle) {
		speed, turn := motion.Step(s.noise(playerRand), s.noise(playerRand))
		heading := particleHeading(p)
		move := geometry.Polar(speed, heading)
		p.State[0] += move.X
		p.State[1] += move.Y
		rad := geometry.Deg2Rad(geometry.NormalizeDeg(heading + turn))
		p.State[2], p.State[3] = math.Cos(rad), math.Sin(rad)
	})
	if len(landmarks) > 0 {
		s.filter.Update(func(p *pfilter.Particle) float64 {
			pos := geometry.Vec{X: p.State[0], Y: p.State[1]}
			face := particleHeading(p) + prev.Neck
			w := 1.0
			for _, l := range landmarks {
				dist := geometry.Distance(pos, l.Position)
				dir := geometry.NormalizeDeg(geometry.Direction(pos, l.Position) - face)
				w *= geometry.Gaussian{Mu: l.MidDistance(), Sigma: 4 * l.DistanceError()}.Prob(dist)
				w *= geometry.Gaussian{Mu: l.MidDirection(), Sigma: 4 * l.DirectionError()}.Prob(dir)
			}
			return w
		})
	}
	s.filter.Resample()

	mean := s.filter.Mean()
	est := prev
	est.X, est.Y = mean[0], mean[1]
	est.Heading = geometry.Rad2Deg(math.Atan2(mean[3], mean[2]))
	return est
}
