// Package pfilter implements a generic N-dimensional sequential importance
// resampling filter. Motion and measurement models are supplied as closures
// by each use site: the self-pose estimator runs one over (x, y, cos, sin)
// and the particle tracker keeps one per track.
package pfilter

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Particle is one weighted hypothesis.
type Particle struct {
	State  []float64
	Weight float64
}

// Filter holds a fixed-size particle set. The number of particles never
// changes after New, and weights sum to 1 after every Update and Resample.
type Filter struct {
	dims      int
	particles []Particle
	rng       *rand.Rand
	fit       float64
}

// NewRand returns a PCG source for seed. Seed 0 draws one from the wall
// clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// New creates a filter of n particles in dims dimensions, all at the origin
// with uniform weight. A nil rng is replaced by a time-seeded source.
func New(dims, n int, rng *rand.Rand) *Filter {
	if n < 1 {
		n = 1
	}
	if rng == nil {
		rng = NewRand(0)
	}
	f := &Filter{dims: dims, particles: make([]Particle, n), rng: rng, fit: 1}
	w := 1 / float64(n)
	for i := range f.particles {
		f.particles[i] = Particle{State: make([]float64, dims), Weight: w}
	}
	return f
}

// InitWithBelief spreads the particles uniformly over mu ± dev and resets
// the weights.
func (f *Filter) InitWithBelief(mu, dev []float64) {
	w := 1 / float64(len(f.particles))
	for i := range f.particles {
		p := &f.particles[i]
		for d := 0; d < f.dims; d++ {
			p.State[d] = mu[d] + dev[d]*(2*f.rng.Float64()-1)
		}
		p.Weight = w
	}
	f.fit = 1
}

// Predict applies the motion model to every particle.
func (f *Filter) Predict(motion func(p *Particle)) {
	for i := range f.particles {
		motion(&f.particles[i])
	}
}

// Update multiplies every weight by the measurement likelihood and
// normalizes. Zero likelihoods are clamped to the smallest positive float so
// no hypothesis is lost outright.
func (f *Filter) Update(likelihood func(p *Particle) float64) {
	for i := range f.particles {
		p := &f.particles[i]
		w := p.Weight * likelihood(p)
		if !(w > 0) || math.IsInf(w, 0) {
			w = math.SmallestNonzeroFloat64
		}
		p.Weight = w
	}
	f.normalize()
}

// Resample draws a new particle set with systematic resampling. The sum of
// the selected weights, before they are normalized again, is kept as Fit.
func (f *Filter) Resample() {
	n := len(f.particles)
	step := 1 / float64(n)
	u := f.rng.Float64() * step
	next := make([]Particle, n)
	selected := make([]float64, n)

	cum := f.particles[0].Weight
	j := 0
	for i := 0; i < n; i++ {
		for u > cum && j < n-1 {
			j++
			cum += f.particles[j].Weight
		}
		src := f.particles[j]
		next[i] = Particle{State: append([]float64(nil), src.State...), Weight: src.Weight}
		selected[i] = src.Weight
		u += step
	}
	f.particles = next
	f.fit = floats.Sum(selected)
	f.normalize()
}

func (f *Filter) normalize() {
	weights := make([]float64, len(f.particles))
	for i, p := range f.particles {
		weights[i] = p.Weight
	}
	total := floats.Sum(weights)
	if !(total > 0) || math.IsInf(total, 0) {
		w := 1 / float64(len(f.particles))
		for i := range f.particles {
			f.particles[i].Weight = w
		}
		return
	}
	for i := range f.particles {
		f.particles[i].Weight /= total
	}
}

// Mean returns the weighted mean state.
func (f *Filter) Mean() []float64 {
	mean := make([]float64, f.dims)
	for _, p := range f.particles {
		for d, v := range p.State {
			mean[d] += p.Weight * v
		}
	}
	return mean
}

// Variance returns the weighted per-dimension variance.
func (f *Filter) Variance() []float64 {
	mean := f.Mean()
	v := make([]float64, f.dims)
	for _, p := range f.particles {
		for d, x := range p.State {
			diff := x - mean[d]
			v[d] += p.Weight * diff * diff
		}
	}
	return v
}

// Fit returns the selected-weight sum recorded by the last Resample. It is
// 1 before any resampling.
func (f *Filter) Fit() float64 { return f.fit }

// Len returns the particle count.
func (f *Filter) Len() int { return len(f.particles) }

// Dims returns the state dimension.
func (f *Filter) Dims() int { return f.dims }

// Particles returns a deep copy of the particle set.
func (f *Filter) Particles() []Particle {
	out := make([]Particle, len(f.particles))
	for i, p := range f.particles {
		out[i] = Particle{State: append([]float64(nil), p.State...), Weight: p.Weight}
	}
	return out
}

// Clone returns an independent copy sharing the random source.
func (f *Filter) Clone() *Filter {
	return &Filter{dims: f.dims, particles: f.Particles(), rng: f.rng, fit: f.fit}
}
