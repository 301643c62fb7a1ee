// Package world holds the immutable per-cycle snapshot of everything the
// agent perceives outside itself.
package world

import (
	"encoding/json"
	"sort"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
)

// MaxUniform is the highest uniform number a team can field.
const MaxUniform = 11

// Stats are the cumulative identity-matching statistics of the tracker.
// Real counts pairs that truly are the same player, Method the pairs the
// tracker bound, and Correct the bound pairs that were right.
type Stats struct {
	Real    int `json:"real"`
	Method  int `json:"method"`
	Correct int `json:"correct"`
}

// Input carries the tracker's output into New.
type Input struct {
	Time      int
	Current   bool
	Players   []observe.Body
	Ball      observe.Ball
	Exact     []observe.Body // ground-truth players, when sensed
	ExactBall *observe.Ball
	Stats     Stats
}

// Model is one cycle's world snapshot. It is never modified after New and
// every accessor returns copies.
type Model struct {
	time      int
	current   bool
	players   []observe.Body
	ball      observe.Ball
	exactBall *observe.Ball
	ours      [MaxUniform + 1]*observe.Body
	opps      [MaxUniform + 1]*observe.Body
	stats     Stats
}

// Empty is the snapshot before the first cycle.
func Empty() *Model {
	return &Model{ball: observe.LostBall()}
}

// New builds a snapshot, copying everything it is given.
func New(in Input) *Model {
	m := &Model{
		time:    in.Time,
		current: in.Current,
		players: append([]observe.Body(nil), in.Players...),
		ball:    in.Ball,
		stats:   in.Stats,
	}
	if in.ExactBall != nil {
		b := *in.ExactBall
		m.exactBall = &b
	}
	for i := range in.Exact {
		p := in.Exact[i]
		if p.Uniform < 1 || p.Uniform > MaxUniform {
			continue
		}
		switch p.Team {
		case observe.TeamOurs:
			m.ours[p.Uniform] = &p
		case observe.TeamOpponent:
			m.opps[p.Uniform] = &p
		}
	}
	return m
}

// Time returns the simulation cycle the snapshot describes.
func (m *Model) Time() int { return m.time }

// Current reports whether egocentric vision arrived this cycle.
func (m *Model) Current() bool { return m.current }

// Stats returns the matching statistics.
func (m *Model) Stats() Stats { return m.stats }

// Ball returns the tracked ball.
func (m *Model) Ball() observe.Ball { return m.ball }

// ExactBall returns the ground-truth ball when exact sensing is enabled.
func (m *Model) ExactBall() (observe.Ball, bool) {
	if m.exactBall == nil {
		return observe.Ball{}, false
	}
	return *m.exactBall, true
}

// ExactOurs returns the ground-truth teammate with uniform unum.
func (m *Model) ExactOurs(unum int) (observe.Body, bool) { return exactAt(m.ours, unum) }

// ExactOpps returns the ground-truth opponent with uniform unum.
func (m *Model) ExactOpps(unum int) (observe.Body, bool) { return exactAt(m.opps, unum) }

func exactAt(arr [MaxUniform + 1]*observe.Body, unum int) (observe.Body, bool) {
	if unum < 1 || unum > MaxUniform || arr[unum] == nil {
		return observe.Body{}, false
	}
	return *arr[unum], true
}

// Players returns every tracked player.
func (m *Model) Players() []observe.Body {
	return append([]observe.Body(nil), m.players...)
}

// Ours returns the tracked teammates.
func (m *Model) Ours() []observe.Body { return m.filter(observe.TeamOurs) }

// Opps returns the tracked opponents.
func (m *Model) Opps() []observe.Body { return m.filter(observe.TeamOpponent) }

// Undefined returns the tracked players of unknown team.
func (m *Model) Undefined() []observe.Body { return m.filter(observe.TeamUndefined) }

func (m *Model) filter(team observe.Team) []observe.Body {
	var out []observe.Body
	for _, p := range m.players {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

// PlayersByDistance returns every tracked player, nearest to from first.
func (m *Model) PlayersByDistance(from geometry.Vec) []observe.Body {
	return byDistance(m.Players(), from)
}

// OursByDistance returns the teammates, nearest to from first.
func (m *Model) OursByDistance(from geometry.Vec) []observe.Body {
	return byDistance(m.Ours(), from)
}

// OppsByDistance returns the opponents, nearest to from first.
func (m *Model) OppsByDistance(from geometry.Vec) []observe.Body {
	return byDistance(m.Opps(), from)
}

// UndefinedByDistance returns the unidentified players, nearest to from
// first.
func (m *Model) UndefinedByDistance(from geometry.Vec) []observe.Body {
	return byDistance(m.Undefined(), from)
}

func byDistance(players []observe.Body, from geometry.Vec) []observe.Body {
	sort.SliceStable(players, func(i, j int) bool {
		return geometry.Distance(from, players[i].Position) < geometry.Distance(from, players[j].Position)
	})
	return players
}

type modelJSON struct {
	Time      int            `json:"time"`
	Current   bool           `json:"current"`
	Players   []observe.Body `json:"players"`
	Ball      observe.Ball   `json:"ball"`
	ExactBall *observe.Ball  `json:"exact_ball,omitempty"`
	Stats     Stats          `json:"stats"`
}

// MarshalJSON renders the snapshot for the monitor and recorder.
func (m *Model) MarshalJSON() ([]byte, error) {
	players := m.players
	if players == nil {
		players = []observe.Body{}
	}
	return json.Marshal(modelJSON{
		Time:      m.time,
		Current:   m.current,
		Players:   players,
		Ball:      m.ball,
		ExactBall: m.exactBall,
		Stats:     m.stats,
	})
}
