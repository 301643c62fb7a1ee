// Package tracker keeps persistent identities for the players and the ball
// across cycles. Each cycle it binds fresh sightings to the previous
// cycle's tracks, mints identities for new ones and extrapolates tracks that
// left the vision cone until they go stale.
//
// A Tracker is owned by a single goroutine.
package tracker

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/config"
	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/pfilter"
	"github.com/banshee-data/pitchside/internal/perception/world"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Resonance is the z-score below which a stale out-of-view track is taken
// to be the same object as a fresh sighting (90% one-sided).
const Resonance = 1.64

// trackParticles is the size of every per-track filter.
const trackParticles = 100

// Config holds the tracker configuration.
type Config struct {
	Tracking              string // qualifier or pfilters
	PlayerHistory         bool
	PlayerTracking        bool
	BallTracking          bool
	Threshold             float64
	PlayerMaxHistory      int
	BallMaxHistory        int
	ExactIdentityBackfill bool
	RandomSeed            uint64
	CopyThrough           bool // agents without egocentric vision
}

// DefaultConfig returns the tracker configuration from the canonical
// defaults file. Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded PerceptionConfig.
func ConfigFromTuning(cfg *config.PerceptionConfig) Config {
	return Config{
		Tracking:              cfg.GetTracking(),
		PlayerHistory:         cfg.GetPlayerHistory(),
		PlayerTracking:        cfg.GetPlayerTracking(),
		BallTracking:          cfg.GetBallTracking(),
		Threshold:             cfg.GetTrackingThreshold(),
		PlayerMaxHistory:      cfg.GetPlayerMaxHistory(),
		BallMaxHistory:        cfg.GetBallMaxHistory(),
		ExactIdentityBackfill: cfg.GetExactIdentityBackfill(),
		RandomSeed:            cfg.GetRandomSeed(),
		CopyThrough:           cfg.IsCoach(),
	}
}

// Frame is one cycle of input.
type Frame struct {
	Time      int
	Current   bool // egocentric vision arrived this cycle
	Players   []observe.Body
	Ball      observe.Ball
	Exact     []observe.Body // ground-truth players, empty unless sensed
	ExactBall *observe.Ball
	Ego       geometry.Pose
	ViewAngle float64 // full cone width in degrees
}

// Tracker holds the previous cycle's tracks.
type Tracker struct {
	cfg    Config
	params rcss.ServerParams

	players []observe.Body
	ball    observe.Ball
	nextID  int
	filters map[int]*pfilter.Filter
	rng     *rand.Rand
	stats   world.Stats
}

// New creates an empty tracker.
func New(cfg Config, params rcss.ServerParams) *Tracker {
	return &Tracker{
		cfg:     cfg,
		params:  params,
		ball:    observe.LostBall(),
		filters: make(map[int]*pfilter.Filter),
		rng:     pfilter.NewRand(cfg.RandomSeed),
	}
}

// SetParams replaces the simulator constants.
func (t *Tracker) SetParams(p rcss.ServerParams) { t.params = p }

// Stats returns the cumulative matching statistics.
func (t *Tracker) Stats() world.Stats { return t.stats }

// FilterCount returns the number of live per-track filters.
func (t *Tracker) FilterCount() int { return len(t.filters) }

// HasFilter reports whether a track still owns a filter.
func (t *Tracker) HasFilter(trackID int) bool {
	_, ok := t.filters[trackID]
	return ok
}

// Update runs one cycle and returns the new snapshot.
func (t *Tracker) Update(f Frame) *world.Model {
	next := make([]observe.Body, len(f.Players))
	copy(next, f.Players)
	for i := range next {
		next[i].Tracked = false
		next[i].TimeToLive = 0
	}

	if t.cfg.CopyThrough {
		t.players = next
		t.ball = f.Ball
		return t.snapshot(f)
	}

	if len(f.Exact) > 0 {
		backfillIdentity(next, f.Exact, t.cfg.ExactIdentityBackfill)
		t.countRealMatches(next)
	}
	if t.cfg.BallTracking {
		t.ball = trackBall(t.ball, f.Ball, t.params, t.cfg.BallMaxHistory)
	} else {
		t.ball = f.Ball
	}

	if !t.cfg.PlayerHistory {
		t.mintIdentities(next)
		t.players = next
		return t.snapshot(f)
	}

	tracked := make([]bool, len(t.players))
	if t.cfg.PlayerTracking {
		var cells []cell
		if t.cfg.Tracking == config.TrackingParticles {
			cells = t.particleScores(t.players, next)
		} else {
			cells = qualifierScores(t.players, next)
		}
		t.assign(t.players, next, cells, tracked)
	}
	t.mintIdentities(next)

	fresh := len(next)
	for i, p := range t.players {
		if tracked[i] {
			continue
		}
		if kept, ok := t.extrapolate(p, next[:fresh], f.Ego, f.ViewAngle); ok {
			next = append(next, kept)
			continue
		}
		t.release(p.TrackID)
	}
	t.players = next
	return t.snapshot(f)
}

func (t *Tracker) snapshot(f Frame) *world.Model {
	return world.New(world.Input{
		Time:      f.Time,
		Current:   f.Current,
		Players:   t.players,
		Ball:      t.ball,
		Exact:     f.Exact,
		ExactBall: f.ExactBall,
		Stats:     t.stats,
	})
}

// mintIdentities gives every unbound sighting a fresh track, seeding its
// filter when per-track filters are in use. Without history nothing is
// carried forward, so no filter is seeded.
func (t *Tracker) mintIdentities(next []observe.Body) {
	for i := range next {
		if next[i].TrackID != observe.NoTrack {
			continue
		}
		next[i].TrackID = t.nextID
		t.nextID++
		if t.cfg.PlayerHistory && t.cfg.PlayerTracking && t.cfg.Tracking == config.TrackingParticles {
			t.filters[next[i].TrackID] = t.seedFilter(next[i])
		}
	}
}

// extrapolate advances an unmatched track by one step. It survives only
// outside the vision cone, when no fresh sighting resonates with it and
// while its time to live lasts.
func (t *Tracker) extrapolate(p observe.Body, fresh []observe.Body, ego geometry.Pose, viewAngle float64) (observe.Body, bool) {
	p.Position = r2.Add(p.Position, p.Velocity)
	p.Velocity = r2.Scale(t.params.PlayerDecay, p.Velocity)
	if p.VelocitySource != observe.VelocityNone {
		p.VelocitySource = observe.VelocityExtrapolated
	}

	bearing := geometry.NormalizeDeg(geometry.Direction(ego.Point(), p.Position) - ego.Face())
	if math.Abs(bearing) <= viewAngle/2 {
		return p, false
	}
	for _, n := range fresh {
		if resonates(p, n) {
			monitoring.Verbosef("[Tracker] track %d resonates with a fresh sighting, dropped", p.TrackID)
			return p, false
		}
	}
	if p.TimeToLive >= t.cfg.PlayerMaxHistory {
		return p, false
	}
	p.TimeToLive++
	p.Status = observe.StatusInferred
	p.Tracked = false
	return p, true
}

// resonates tests whether a stale track is within the combined error of a
// fresh sighting.
func resonates(past, current observe.Body) bool {
	errSum := current.DistanceError + past.DistanceError
	if errSum < geometry.Epsilon {
		errSum = geometry.Epsilon
	}
	return geometry.Distance(past.Position, current.Position)/errSum < Resonance
}

func (t *Tracker) release(trackID int) {
	delete(t.filters, trackID)
}

func (t *Tracker) countRealMatches(next []observe.Body) {
	for _, p := range t.players {
		if p.TrueUniform == 0 {
			continue
		}
		for _, n := range next {
			if n.TrueTeam == p.TrueTeam && n.TrueUniform == p.TrueUniform {
				t.stats.Real++
			}
		}
	}
}
