// Package geometry provides the 2D primitives shared by the perception
// packages: vectors, degree/radian helpers, angle wrapping, circular means
// and the absolute pose of a body on the pitch.
//
// All angles are in degrees and follow the simulator convention: the y axis
// points down, so a direction is atan2(dy, dx) measured clockwise on screen.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Vec is a point or displacement in field coordinates.
type Vec = r2.Vec

// Epsilon is the floor used wherever a distance or error would otherwise
// divide by zero.
const Epsilon = 1e-9

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDeg wraps an angle into [-180, 180).
func NormalizeDeg(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}

// AngleDiffDeg returns the absolute shortest deviation between two angles,
// in [0, 180].
func AngleDiffDeg(a, b float64) float64 {
	return math.Abs(NormalizeDeg(a - b))
}

// CircularMeanDeg returns the circular mean of the given angles. An empty
// input yields 0.
func CircularMeanDeg(angles []float64) float64 {
	if len(angles) == 0 {
		return 0
	}
	rad := make([]float64, len(angles))
	for i, a := range angles {
		rad[i] = Deg2Rad(a)
	}
	return NormalizeDeg(Rad2Deg(stat.CircularMean(rad, nil)))
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec) float64 {
	return r2.Norm(r2.Sub(b, a))
}

// Direction returns the absolute direction from a to b in degrees.
func Direction(a, b Vec) float64 {
	d := r2.Sub(b, a)
	return Rad2Deg(math.Atan2(d.Y, d.X))
}

// Polar builds a vector of the given length pointing at deg.
func Polar(length, deg float64) Vec {
	rad := Deg2Rad(deg)
	return Vec{X: length * math.Cos(rad), Y: length * math.Sin(rad)}
}

// ClampNorm scales v down so its length does not exceed max.
func ClampNorm(v Vec, max float64) Vec {
	n := r2.Norm(v)
	if n <= max || n == 0 {
		return v
	}
	return r2.Scale(max/n, v)
}

// Gaussian is a one-dimensional normal likelihood.
type Gaussian struct {
	Mu    float64
	Sigma float64
}

// Prob evaluates the density at x. A non-positive sigma carries no
// information and evaluates to 1.
func (g Gaussian) Prob(x float64) float64 {
	if g.Sigma <= 0 {
		return 1
	}
	return distuv.Normal{Mu: g.Mu, Sigma: g.Sigma}.Prob(x)
}
