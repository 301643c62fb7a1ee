// Package selfpose estimates the agent's own absolute pose from body
// telemetry and landmark sightings.
//
// The Estimator is owned by the demultiplexer's coordinator goroutine and is
// not safe for concurrent use. Other goroutines read the State copies it
// publishes with every cycle.
package selfpose

import (
	"github.com/banshee-data/pitchside/internal/config"
	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/pfilter"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Config holds the estimator settings.
type Config struct {
	Localization string // lowpassfilter, triangulation or particlefilter
	Particles    int
	HistorySize  int
	RandomSeed   uint64 // 0 seeds from the clock
}

// DefaultConfig returns the estimator configuration from the canonical
// defaults file. Panics if the file cannot be found.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning builds a Config from a loaded PerceptionConfig.
func ConfigFromTuning(cfg *config.PerceptionConfig) Config {
	return Config{
		Localization: cfg.GetLocalization(),
		Particles:    cfg.GetParticles(),
		HistorySize:  cfg.GetHistorySize(),
		RandomSeed:   cfg.GetRandomSeed(),
	}
}

// State is the published copy of the estimator.
type State struct {
	Pose      geometry.Pose    `json:"pose"`
	Velocity  geometry.Vec     `json:"velocity"`
	Placed    bool             `json:"placed"`
	Side      rcss.Side        `json:"side"`
	Unum      int              `json:"unum"`
	ViewAngle float64          `json:"view_angle"`
	Strategy  string           `json:"strategy"`
	History   []rcss.SenseBody `json:"-"` // newest first
}

// Telemetry returns the sense_body received ago cycles before the latest
// one, or the zero value when ago is outside the history depth.
func (s State) Telemetry(ago int) rcss.SenseBody {
	if ago < 0 || ago >= len(s.History) {
		return rcss.SenseBody{}
	}
	return s.History[ago]
}

// Estimator owns the self pose, the telemetry history and the confirmation
// of issued commands.
type Estimator struct {
	cfg      Config
	params   rcss.ServerParams
	strategy Strategy
	particle *Particle

	history  *History[rcss.SenseBody]
	commands []*Command
	control  Control

	pose     geometry.Pose
	velocity geometry.Vec
	placed   bool
	side     rcss.Side
	unum     int
}

// NewEstimator creates an estimator using the configured strategy.
func NewEstimator(cfg Config, params rcss.ServerParams) *Estimator {
	e := &Estimator{
		cfg:     cfg,
		params:  params,
		history: NewHistory[rcss.SenseBody](cfg.HistorySize),
		side:    rcss.SideLeft,
	}
	switch cfg.Localization {
	case config.LocalizationParticle:
		e.particle = NewParticle(cfg.Particles, pfilter.NewRand(cfg.RandomSeed))
		e.strategy = e.particle
	case config.LocalizationTriangulation:
		e.strategy = Triangulation{}
	default:
		e.strategy = LowPass{}
	}
	return e
}

// NewEstimatorWithStrategy creates an estimator around an explicit strategy.
func NewEstimatorWithStrategy(cfg Config, params rcss.ServerParams, s Strategy) *Estimator {
	e := NewEstimator(cfg, params)
	e.strategy = s
	e.particle, _ = s.(*Particle)
	return e
}

// SetParams replaces the simulator constants used by the motion model.
func (e *Estimator) SetParams(p rcss.ServerParams) { e.params = p }

// Params returns the simulator constants in use.
func (e *Estimator) Params() rcss.ServerParams { return e.params }

// SetIdentity records the side and uniform number from init. A player on
// the right starts facing the other way.
func (e *Estimator) SetIdentity(side rcss.Side, unum int) {
	e.side, e.unum = side, unum
	if side == rcss.SideRight && !e.placed {
		e.pose.Heading = 180
	}
}

// Place puts the agent at a known pose and enables estimation.
func (e *Estimator) Place(p geometry.Pose) {
	e.pose = p
	e.placed = true
	if e.particle != nil {
		e.particle.Seed(p)
	}
}

// Placed reports whether estimation has started.
func (e *Estimator) Placed() bool { return e.placed }

// SetLastCommands hands over the commands sent since the previous cycle.
func (e *Estimator) SetLastCommands(cmds []*Command) {
	e.commands = append(e.commands[:0], cmds...)
}

func (e *Estimator) lastCommand(kind CommandKind) *Command {
	for i := len(e.commands) - 1; i >= 0; i-- {
		if e.commands[i].Kind == kind {
			return e.commands[i]
		}
	}
	return nil
}

// Ingest pushes one sense_body into the history and confirms the commands
// whose counters increased. A confirmed dash or turn becomes this cycle's
// control; a confirmed move places the agent at the move target.
func (e *Estimator) Ingest(sb rcss.SenseBody) {
	prev := e.history.At(0)
	e.history.Push(sb)
	e.control = Control{}
	e.pose.Neck = sb.HeadAngle

	for kind, counter := range counterFor {
		if sb.Counts[counter] <= prev.Counts[counter] {
			continue
		}
		cmd := e.lastCommand(kind)
		if cmd == nil {
			continue
		}
		cmd.markExecuted()
		switch kind {
		case CommandDash:
			e.control.DashPower, e.control.DashDirection = cmd.Power, cmd.Direction
		case CommandTurn:
			e.control.TurnMoment = cmd.Moment
		case CommandMove:
			monitoring.Logf("[SelfPose] move to (%.2f, %.2f) confirmed", cmd.X, cmd.Y)
			e.Place(geometry.Pose{X: cmd.X, Y: cmd.Y, Heading: e.pose.Heading, Neck: e.pose.Neck})
		}
	}
	if sb.Tackle.Count > prev.Tackle.Count {
		if cmd := e.lastCommand(CommandTackle); cmd != nil {
			cmd.markExecuted()
		}
	}

	e.velocity = geometry.Polar(sb.Speed, e.pose.Heading+sb.HeadAngle+sb.SpeedDirection)
}

// Motion returns the forward model input for the current cycle.
func (e *Estimator) Motion() Motion {
	past := e.history.At(1)
	return Motion{
		Control:   e.control,
		PastSpeed: past.Speed,
		Effort:    past.Effort,
		Params:    e.params,
	}
}

// Localize runs the strategy on this cycle's landmarks. Before the agent
// has been placed the pose is left untouched.
func (e *Estimator) Localize(landmarks []observe.Landmark) geometry.Pose {
	if !e.placed {
		return e.pose
	}
	prev := e.pose
	prev.Neck = e.history.At(0).HeadAngle
	next := e.strategy.Estimate(prev, e.Motion(), landmarks)
	next.Neck = prev.Neck
	next.Heading = geometry.NormalizeDeg(next.Heading)
	e.pose = next
	e.velocity = geometry.Polar(e.history.At(0).Speed, next.Face()+e.history.At(0).SpeedDirection)
	return next
}

// Pose returns the current estimate.
func (e *Estimator) Pose() geometry.Pose { return e.pose }

// Velocity returns the agent's absolute velocity.
func (e *Estimator) Velocity() geometry.Vec { return e.velocity }

// ViewAngle returns the current vision cone width in degrees.
func (e *Estimator) ViewAngle() float64 { return e.history.At(0).ViewAngle() }

// Telemetry returns the sense_body received ago cycles before the latest.
func (e *Estimator) Telemetry(ago int) rcss.SenseBody { return e.history.At(ago) }

// State returns a copy of the estimator's public state.
func (e *Estimator) State() State {
	return State{
		Pose:      e.pose,
		Velocity:  e.velocity,
		Placed:    e.placed,
		Side:      e.side,
		Unum:      e.unum,
		ViewAngle: e.ViewAngle(),
		Strategy:  e.strategy.Name(),
		History:   e.history.Slice(),
	}
}
