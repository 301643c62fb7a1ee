package tracker

import (
	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
)

type identity struct {
	team observe.Team
	unum int
}

// backfillIdentity labels sightings with the ground-truth identity of the
// nearest unclaimed exact-state player. Sightings of a known team are
// resolved first, within that team; sightings of unknown team are bound
// last to any remaining player. With overwrite the observed identity is
// replaced as well.
func backfillIdentity(next, exact []observe.Body, overwrite bool) {
	claimed := make(map[identity]bool)
	for _, n := range next {
		if n.Team != observe.TeamUndefined && n.Uniform != 0 {
			claimed[identity{n.Team, n.Uniform}] = true
		}
	}

	bind := func(n *observe.Body, anyTeam bool) {
		best := -1
		bestDist := 0.0
		for j, e := range exact {
			id := identity{e.Team, e.Uniform}
			if claimed[id] || (!anyTeam && e.Team != n.Team) {
				continue
			}
			d := geometry.Distance(n.Position, e.Position)
			if best < 0 || d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			return
		}
		e := exact[best]
		claimed[identity{e.Team, e.Uniform}] = true
		n.TrueTeam, n.TrueUniform = e.Team, e.Uniform
		if overwrite {
			n.Team, n.Uniform = e.Team, e.Uniform
		}
	}

	for i := range next {
		if next[i].Team != observe.TeamUndefined && next[i].Uniform == 0 {
			bind(&next[i], false)
		}
	}
	for i := range next {
		if next[i].Team == observe.TeamUndefined {
			bind(&next[i], true)
		}
	}
}
