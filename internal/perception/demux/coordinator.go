// Package demux classifies incoming server reports and assembles them into
// one world snapshot per simulation cycle.
//
// A single coordinator goroutine owns every per-cycle accumulator together
// with the estimator, the tracker and the game state. The reader goroutine
// hands reports over with Dispatch; completion timers and command hand-offs
// arrive on the same channel.
package demux

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/banshee-data/pitchside/internal/config"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/game"
	"github.com/banshee-data/pitchside/internal/perception/gate"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/selfpose"
	"github.com/banshee-data/pitchside/internal/perception/tracker"
	"github.com/banshee-data/pitchside/internal/rcss"
	"github.com/banshee-data/pitchside/internal/timeutil"
)

// ErrClosed is returned by Dispatch and SetLastCommands once Run has
// stopped.
var ErrClosed = errors.New("demux: coordinator closed")

// queueSize bounds the reports waiting for the coordinator.
const queueSize = 64

// Options wires a Coordinator. Nil collaborators are built from Config.
type Options struct {
	Config    *config.PerceptionConfig
	Clock     timeutil.Clock
	Params    rcss.ServerParams
	Estimator *selfpose.Estimator
	Tracker   *tracker.Tracker
	Game      *game.State
	Gate      *gate.Gate
	Sinks     []Sink
}

type eventKind int

const (
	eventReport eventKind = iota
	eventTimer
	eventCommands
)

type event struct {
	kind     eventKind
	class    rcss.Kind
	report   string
	seq      uint64
	commands []*selfpose.Command
}

// parked is a vision or exact-state report waiting for the telemetry of
// its cycle.
type parked struct {
	class rcss.Kind
	time  int
	node  rcss.Node
}

// accumulator is the state of the cycle being assembled.
type accumulator struct {
	time      int
	started   bool
	completed bool
	seq       uint64
	current   bool

	landmarks   []rcss.SeenObject
	players     []rcss.SeenObject
	ball        *rcss.SeenObject
	global      []observe.Body
	globalBall  *observe.Ball
	exact       []observe.Body
	exactBall   *observe.Ball
	messages    []Message
	telemetryAt int // time of the last applied sense_body, -1 before any
}

// Coordinator is the sensor demultiplexer.
type Coordinator struct {
	cfg       *config.PerceptionConfig
	clock     timeutil.Clock
	params    rcss.ServerParams
	estimator *selfpose.Estimator
	tracker   *tracker.Tracker
	game      *game.State
	gate      *gate.Gate
	sinks     []Sink

	events chan event
	done   chan struct{}

	published atomic.Pointer[Cycle]

	// Owned by Run.
	acc         accumulator
	late        []Message
	stage2      []parked
	timer       timeutil.Timer
	timerCancel chan struct{}
	playerTypes map[int]rcss.PlayerType
	ourType     *rcss.PlayerType
	side        rcss.Side
	unum        int
}

// New builds a coordinator. It does not start processing until Run is
// called.
func New(opts Options) *Coordinator {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyPerceptionConfig()
	}
	params := opts.Params
	if params == (rcss.ServerParams{}) {
		params = rcss.DefaultServerParams()
	}
	c := &Coordinator{
		cfg:         cfg,
		clock:       opts.Clock,
		params:      params,
		estimator:   opts.Estimator,
		tracker:     opts.Tracker,
		game:        opts.Game,
		gate:        opts.Gate,
		sinks:       opts.Sinks,
		events:      make(chan event, queueSize),
		done:        make(chan struct{}),
		playerTypes: make(map[int]rcss.PlayerType),
		side:        rcss.SideLeft,
	}
	if c.clock == nil {
		c.clock = timeutil.RealClock{}
	}
	if c.estimator == nil {
		c.estimator = selfpose.NewEstimator(selfpose.ConfigFromTuning(cfg), params)
	}
	if c.tracker == nil {
		c.tracker = tracker.New(tracker.ConfigFromTuning(cfg), params)
	}
	if c.game == nil {
		c.game = game.New()
	}
	if c.gate == nil {
		c.gate = gate.New()
	}
	c.acc.telemetryAt = -1
	c.published.Store(emptyCycle())
	return c
}

// Run processes events until ctx is cancelled. It must be called once.
// On return the gate is terminated and Dispatch fails with ErrClosed.
func (c *Coordinator) Run(ctx context.Context) error {
	defer func() {
		c.stopTimer()
		close(c.done)
		c.gate.Terminate()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Dispatch classifies a report on the caller's goroutine and queues it for
// the coordinator.
func (c *Coordinator) Dispatch(report string) error {
	return c.send(event{kind: eventReport, class: rcss.Classify(report), report: report})
}

// SetLastCommands hands over the commands sent since the previous cycle so
// their execution can be confirmed against the next telemetry.
func (c *Coordinator) SetLastCommands(cmds []*selfpose.Command) error {
	return c.send(event{kind: eventCommands, commands: append([]*selfpose.Command(nil), cmds...)})
}

func (c *Coordinator) send(ev event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// AwaitNextCycle blocks until the next cycle completes. It returns false
// once the match is over.
func (c *Coordinator) AwaitNextCycle() bool { return c.gate.Await() }

// Snapshot returns the latest published cycle.
func (c *Coordinator) Snapshot() *Cycle { return c.published.Load() }

func (c *Coordinator) handle(ev event) {
	switch ev.kind {
	case eventTimer:
		if ev.seq == c.acc.seq && c.acc.started && !c.acc.completed {
			c.complete(true)
		}
	case eventCommands:
		c.estimator.SetLastCommands(ev.commands)
	case eventReport:
		c.handleReport(ev)
	}
}

// hasTelemetry reports whether the agent receives sense_body at all.
func (c *Coordinator) hasTelemetry() bool { return !c.cfg.IsCoach() }

func (c *Coordinator) startsCycle(class rcss.Kind) bool {
	if c.hasTelemetry() {
		return class == rcss.KindSenseBody
	}
	return class == rcss.KindSeeGlobal
}

// beginCycle opens cycle t, completing the previous one first if its timer
// has not fired yet.
func (c *Coordinator) beginCycle(t int) {
	if c.acc.started && !c.acc.completed {
		c.complete(false)
	}
	c.stopTimer()

	seq := c.acc.seq + 1
	telemetryAt := c.acc.telemetryAt
	c.acc = accumulator{time: t, started: true, seq: seq, telemetryAt: telemetryAt}
	c.acc.messages = append(c.acc.messages, c.late...)
	c.late = nil

	for _, p := range c.stage2 {
		if p.time < t {
			monitoring.Verbosef("[Demux] dropping %s for skipped cycle %d", p.class, p.time)
		}
	}
	c.stage2 = keepParked(c.stage2, func(p parked) bool { return p.time >= t })

	wait := c.cfg.GetCycleOffsetMs()
	if c.params.SynchSeeOffset > wait {
		wait = c.params.SynchSeeOffset
	}
	c.startTimer(seq, time.Duration(wait)*time.Millisecond)
}

func (c *Coordinator) startTimer(seq uint64, d time.Duration) {
	t := c.clock.NewTimer(d)
	cancel := make(chan struct{})
	c.timer, c.timerCancel = t, cancel
	go func() {
		select {
		case <-t.C():
			_ = c.send(event{kind: eventTimer, seq: seq})
		case <-cancel:
		case <-c.done:
		}
	}()
}

func (c *Coordinator) stopTimer() {
	if c.timer == nil {
		return
	}
	c.timer.Stop()
	close(c.timerCancel)
	c.timer, c.timerCancel = nil, nil
}

func keepParked(in []parked, keep func(parked) bool) []parked {
	out := in[:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// drainStage2 applies parked reports whose telemetry is in, or all of them
// when the cycle is being forced to completion.
func (c *Coordinator) drainStage2(all bool) {
	var rest []parked
	for _, p := range c.stage2 {
		if all || p.time <= c.acc.telemetryAt {
			c.applyVision(p.class, p.node)
			continue
		}
		rest = append(rest, p)
	}
	c.stage2 = rest
}

// complete runs the completion step for the current cycle. forced is set
// when the timer fired, so parked reports are applied against whatever
// telemetry is available.
func (c *Coordinator) complete(forced bool) {
	c.drainStage2(forced)

	if c.hasTelemetry() {
		c.estimator.Localize(c.landmarks())
	}
	c.tracker.SetParams(c.params)
	model := c.tracker.Update(c.frame())

	messages := append([]Message{}, c.acc.messages...)
	c.game.SetGameTime(c.acc.time)
	c.game.AdvanceCycle()

	goals, against := c.game.Goals()
	cycle := &Cycle{
		Time:         c.acc.time,
		Cycle:        c.game.Cycle(),
		PlayMode:     c.game.PlayMode(),
		LastEvent:    c.game.LastEvent(),
		Goals:        goals,
		GoalsAgainst: against,
		Self:         c.estimator.State(),
		World:        model,
		Messages:     messages,
	}
	c.published.Store(cycle)
	c.acc.completed = true
	c.stopTimer()

	for _, s := range c.sinks {
		s.Publish(cycle)
	}
	if c.game.Over() {
		monitoring.Logf("[Demux] match over at cycle %d", cycle.Time)
		c.gate.Terminate()
		return
	}
	c.gate.Signal()
}
