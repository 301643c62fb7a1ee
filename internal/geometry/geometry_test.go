package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDeg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{720, 0},
		{359, -1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeDeg(tt.in), 1e-9, "NormalizeDeg(%v)", tt.in)
	}
}

func TestAngleDiffDeg(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 20.0, AngleDiffDeg(170, -170), 1e-9)
	assert.InDelta(t, 90.0, AngleDiffDeg(0, -90), 1e-9)
	assert.InDelta(t, 180.0, AngleDiffDeg(0, 180), 1e-9)
}

func TestCircularMeanDeg(t *testing.T) {
	t.Parallel()

	t.Run("wraps around 180", func(t *testing.T) {
		got := CircularMeanDeg([]float64{170, -170})
		assert.InDelta(t, 180.0, math.Abs(got), 1e-9)
	})

	t.Run("simple mean", func(t *testing.T) {
		assert.InDelta(t, 15.0, CircularMeanDeg([]float64{10, 20}), 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, CircularMeanDeg(nil))
	})
}

func TestDirectionAndPolar(t *testing.T) {
	t.Parallel()
	a := Vec{X: 1, Y: 1}
	b := Vec{X: 1, Y: 3}
	assert.InDelta(t, 90.0, Direction(a, b), 1e-9)
	assert.InDelta(t, 2.0, Distance(a, b), 1e-9)

	p := Polar(2, -90)
	assert.InDelta(t, 0.0, p.X, 1e-9)
	assert.InDelta(t, -2.0, p.Y, 1e-9)
}

func TestClampNorm(t *testing.T) {
	t.Parallel()
	v := ClampNorm(Vec{X: 3, Y: 4}, 1)
	assert.InDelta(t, 0.6, v.X, 1e-9)
	assert.InDelta(t, 0.8, v.Y, 1e-9)
	assert.Equal(t, Vec{X: 0.1}, ClampNorm(Vec{X: 0.1}, 1))
}

func TestGaussian(t *testing.T) {
	t.Parallel()
	g := Gaussian{Mu: 0, Sigma: 1}
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), g.Prob(0), 1e-12)
	assert.Greater(t, g.Prob(0), g.Prob(1))
	assert.Equal(t, 1.0, Gaussian{Sigma: 0}.Prob(42))
}

func TestPose(t *testing.T) {
	t.Parallel()
	p := Pose{X: 0, Y: 0, Heading: 90, Neck: 10}
	assert.InDelta(t, 100.0, p.Face(), 1e-9)
	assert.InDelta(t, -90.0, p.BearingTo(Vec{X: 5, Y: 0}), 1e-9)
	assert.InDelta(t, 5.0, p.DistanceTo(Vec{X: 3, Y: 4}), 1e-9)

	m := Pose{X: 10, Y: -5, Heading: 0}.Mirrored()
	assert.Equal(t, -10.0, m.X)
	assert.Equal(t, 5.0, m.Y)
	assert.InDelta(t, -180.0, m.Heading, 1e-9)

	moved := Pose{Heading: 0}.Advance(1, 90)
	assert.InDelta(t, 0.0, moved.X, 1e-9)
	assert.InDelta(t, 1.0, moved.Y, 1e-9)
	assert.InDelta(t, 90.0, moved.Heading, 1e-9)
}
