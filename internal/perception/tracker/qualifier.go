package tracker

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/pfilter"
)

// headingSigma is the spread of the heading agreement score in degrees.
const headingSigma = 90.0

// minDistance floors distances used as divisors.
const minDistance = 0.1

// cell is one candidate pairing of a previous track (row) with a fresh
// sighting (column).
type cell struct {
	row, col int
	h        float64
	filter   *pfilter.Filter // particle variant only
}

type pairKind int

const (
	pairInconsistent pairKind = iota
	pairExact                 // same team and uniform
	pairSameTeam              // same team, at least one uniform unknown
	pairUndefined             // at least one team unknown
)

func classifyPair(p, n observe.Body) pairKind {
	switch {
	case p.Team == observe.TeamUndefined || n.Team == observe.TeamUndefined:
		return pairUndefined
	case p.Team != n.Team:
		return pairInconsistent
	case p.Uniform == 0 || n.Uniform == 0:
		return pairSameTeam
	case p.Uniform == n.Uniform:
		return pairExact
	default:
		return pairInconsistent
	}
}

// qualifierScores computes h = i·d·v for every pair. An exact identity
// match scores 1 and suppresses the rest of its row. Pairs scoring zero are
// left out.
func qualifierScores(past, next []observe.Body) []cell {
	var cells []cell
	heading := geometry.Gaussian{Mu: 0, Sigma: headingSigma}
	for r, p := range past {
		kinds := make([]pairKind, len(next))
		d := make([]float64, len(next))
		v := make([]float64, len(next))
		var dt float64
		nt, mt := 0, 0
		exact := false

		for c, n := range next {
			kinds[c] = classifyPair(p, n)
			switch kinds[c] {
			case pairExact:
				exact = true
			case pairSameTeam:
				nt++
			case pairUndefined:
				mt++
			}
			dist := math.Max(geometry.Distance(p.Position, n.Position), minDistance)
			d[c] = 1 / dist
			dt += d[c]
			if p.HasHeading {
				a := 0.0
				if p.Position != n.Position {
					a = geometry.AngleDiffDeg(p.Heading, geometry.Direction(p.Position, n.Position))
				}
				v[c] = heading.Prob(a)
			} else {
				v[c] = 1 / float64(len(next))
			}
		}

		if exact {
			for c := range next {
				if kinds[c] == pairExact {
					cells = append(cells, cell{row: r, col: c, h: 1})
				}
			}
			continue
		}
		if 2*nt+mt == 0 {
			continue
		}
		pi := 1 / float64(2*nt+mt)
		for c := range next {
			var i float64
			switch kinds[c] {
			case pairSameTeam:
				i = 2 * pi
			case pairUndefined:
				i = pi
			default:
				continue
			}
			h := i * (d[c] / dt) * v[c]
			if h > 0 {
				cells = append(cells, cell{row: r, col: c, h: h})
			}
		}
	}
	return cells
}

// assign binds pairs greedily in descending score. A pair is skipped once
// its row or column is taken, and rejected when the displacement exceeds
// the combined distance error times the threshold.
func (t *Tracker) assign(past, next []observe.Body, cells []cell, tracked []bool) {
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].h > cells[j].h })
	colTaken := make([]bool, len(next))
	for _, c := range cells {
		if tracked[c.row] || colTaken[c.col] {
			continue
		}
		p, n := past[c.row], &next[c.col]
		disp := r2.Sub(n.Position, p.Position)
		d := r2.Norm(disp)
		if d > (p.DistanceError+n.DistanceError)*t.cfg.Threshold {
			continue
		}

		n.TrackID = p.TrackID
		if n.Team == observe.TeamUndefined {
			n.Team = p.Team
		}
		if n.Uniform == 0 && p.Uniform != 0 && n.Team == p.Team {
			n.Uniform = p.Uniform
		}
		if n.VelocitySource != observe.VelocityMeasured {
			n.Velocity = geometry.ClampNorm(disp, t.params.PlayerSpeedMax)
			n.VelocitySource = observe.VelocityInferred
		}
		if !n.HasHeading && d > 0 {
			n.Heading = geometry.Direction(p.Position, n.Position)
			n.HasHeading = true
		}
		n.MatchConfidence = c.h
		n.Tracked = true
		if c.filter != nil {
			t.filters[n.TrackID] = c.filter
		}

		tracked[c.row] = true
		colTaken[c.col] = true
		t.stats.Method++
		if p.TrueUniform != 0 && p.TrueTeam == n.TrueTeam && p.TrueUniform == n.TrueUniform {
			t.stats.Correct++
		}
	}
}
