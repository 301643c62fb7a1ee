package selfpose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
)

// Strategy fuses one cycle of motion and landmark sightings into a new
// pose. prev.Neck already holds the current head angle; the returned
// Heading is the body heading.
type Strategy interface {
	Name() string
	Estimate(prev geometry.Pose, motion Motion, landmarks []observe.Landmark) geometry.Pose
}

// deadReckon advances prev by one noiseless motion step.
func deadReckon(prev geometry.Pose, motion Motion) geometry.Pose {
	speed, turn := motion.Step(1, 1)
	return prev.Advance(speed, turn)
}

// headHeading is the absolute head direction implied by seeing l at its
// reported bearing from position p.
func headHeading(p geometry.Vec, l observe.Landmark) float64 {
	return geometry.NormalizeDeg(geometry.Direction(p, l.Position) - l.Direction)
}

// LowPass blends per-landmark back-projections into the dead-reckoned
// position with a smoothing factor that grows with the number of landmarks.
type LowPass struct{}

func (LowPass) Name() string { return "lowpassfilter" }

func lowPassTau(n int) float64 {
	switch n {
	case 1:
		return 0.3
	case 2:
		return 0.4
	case 3:
		return 0.5
	default:
		return 0.6
	}
}

func (LowPass) Estimate(prev geometry.Pose, motion Motion, landmarks []observe.Landmark) geometry.Pose {
	est := deadReckon(prev, motion)
	if len(landmarks) == 0 {
		return est
	}
	tau := lowPassTau(len(landmarks))
	pos := est.Point()
	headings := make([]float64, 0, len(landmarks))
	for _, l := range landmarks {
		dir := geometry.Direction(l.Position, pos)
		xi := r2.Add(l.Position, geometry.Polar(l.Distance, dir))
		pos = r2.Add(r2.Scale(tau, pos), r2.Scale(1-tau, xi))
		headings = append(headings, headHeading(pos, l))
	}
	est.X, est.Y = pos.X, pos.Y
	est.Heading = geometry.NormalizeDeg(geometry.CircularMeanDeg(headings) - prev.Neck)
	return est
}

// Triangulation intersects the distance circles of every landmark pair and
// averages the solutions.
type Triangulation struct{}

func (Triangulation) Name() string { return "triangulation" }

func (Triangulation) Estimate(prev geometry.Pose, motion Motion, landmarks []observe.Landmark) geometry.Pose {
	var sum geometry.Vec
	var headings []float64
	count := 0
	for i := 0; i < len(landmarks); i++ {
		for j := i + 1; j < len(landmarks); j++ {
			p, ok := intersect(landmarks[i], landmarks[j], prev.Point())
			if !ok {
				continue
			}
			sum = r2.Add(sum, p)
			headings = append(headings, geometry.CircularMeanDeg([]float64{
				headHeading(p, landmarks[i]),
				headHeading(p, landmarks[j]),
			}))
			count++
		}
	}
	if count == 0 {
		return deadReckon(prev, motion)
	}
	est := prev
	pos := r2.Scale(1/float64(count), sum)
	est.X, est.Y = pos.X, pos.Y
	est.Heading = geometry.NormalizeDeg(geometry.CircularMeanDeg(headings) - prev.Neck)
	return est
}

// intersect solves (x-x0)²+(y-y0)²=d0², (x-x1)²+(y-y1)²=d1² and returns the
// root nearest to near. Pairs whose circles do not cross are rejected.
func intersect(a, b observe.Landmark, near geometry.Vec) (geometry.Vec, bool) {
	x0, y0 := a.Position.X, a.Position.Y
	x1, y1 := b.Position.X, b.Position.Y
	k0 := a.Distance*a.Distance - x0*x0 - y0*y0
	k1 := b.Distance*b.Distance - x1*x1 - y1*y1

	var r0, r1 geometry.Vec
	switch {
	case x0 == x1 && y0 == y1:
		return geometry.Vec{}, false
	case x0 == x1:
		y := (k0 - k1) / (2 * (y1 - y0))
		B := -2 * x0
		C := y*y - 2*y*y0 - k0
		disc := B*B - 4*C
		if disc <= 0 {
			return geometry.Vec{}, false
		}
		sq := math.Sqrt(disc)
		r0 = geometry.Vec{X: (-B + sq) / 2, Y: y}
		r1 = geometry.Vec{X: (-B - sq) / 2, Y: y}
	case y0 == y1:
		x := (k0 - k1) / (2 * (x1 - x0))
		B := -2 * y0
		C := x*x - 2*x*x0 - k0
		disc := B*B - 4*C
		if disc <= 0 {
			return geometry.Vec{}, false
		}
		sq := math.Sqrt(disc)
		r0 = geometry.Vec{X: x, Y: (-B + sq) / 2}
		r1 = geometry.Vec{X: x, Y: (-B - sq) / 2}
	default:
		M := (k1 - k0) / (2 * (x0 - x1))
		N := (y0 - y1) / (x1 - x0)
		B := 2 * (M*N - N*x0 - y0) / (N*N + 1)
		C := (M*M - 2*M*x0 - k0) / (N*N + 1)
		disc := B*B - 4*C
		if disc <= 0 {
			return geometry.Vec{}, false
		}
		sq := math.Sqrt(disc)
		ya, yb := (-B+sq)/2, (-B-sq)/2
		r0 = geometry.Vec{X: M + ya*N, Y: ya}
		r1 = geometry.Vec{X: M + yb*N, Y: yb}
	}
	if geometry.Distance(r0, near) < geometry.Distance(r1, near) {
		return r0, true
	}
	return r1, true
}
