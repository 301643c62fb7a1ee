package demux

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitchside/internal/config"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/selfpose"
	"github.com/banshee-data/pitchside/internal/rcss"
	"github.com/banshee-data/pitchside/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

type harness struct {
	t         *testing.T
	c         *Coordinator
	clock     *timeutil.MockClock
	estimator *selfpose.Estimator
	cycles    chan *Cycle
}

func newHarness(t *testing.T, cfg *config.PerceptionConfig) *harness {
	t.Helper()
	if cfg == nil {
		cfg = config.EmptyPerceptionConfig()
	}
	params := rcss.DefaultServerParams()
	h := &harness{
		t:         t,
		clock:     timeutil.NewMockClock(time.Unix(1000, 0)),
		estimator: selfpose.NewEstimator(selfpose.ConfigFromTuning(cfg), params),
		cycles:    make(chan *Cycle, 16),
	}
	h.c = New(Options{
		Config:    cfg,
		Clock:     h.clock,
		Params:    params,
		Estimator: h.estimator,
		Sinks:     []Sink{SinkFunc(func(c *Cycle) { h.cycles <- c })},
	})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return h
}

func (h *harness) dispatch(reports ...string) {
	h.t.Helper()
	for _, r := range reports {
		require.NoError(h.t, h.c.Dispatch(r))
	}
}

// waitTimers blocks until the coordinator has armed n completion timers.
func (h *harness) waitTimers(n int) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.clock.PendingTimers() == n }, time.Second, time.Millisecond)
}

func (h *harness) nextCycle() *Cycle {
	h.t.Helper()
	require.True(h.t, h.c.AwaitNextCycle())
	select {
	case c := <-h.cycles:
		return c
	case <-time.After(time.Second):
		h.t.Fatal("no cycle published")
		return nil
	}
}

func senseBody(t, dash int) string {
	return fmt.Sprintf("(sense_body %d (view_mode high normal) (stamina 8000 1 130000) (speed 0 0) (head_angle 0) "+
		"(kick 0) (dash %d) (turn 0) (say 0) (turn_neck 0) (catch 0) (move 0) (change_view 0))", t, dash)
}

func TestCoordinator_CompletesAfterOffset(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch("(init l 3 before_kick_off)", senseBody(1, 0))
	h.waitTimers(1)
	h.dispatch(`(see 1 ((f c) 10 0) ((b) 5 0) ((p "Other" 4) 20 10))`)

	h.clock.Advance(19 * time.Millisecond)
	assert.Equal(t, 1, h.clock.PendingTimers())
	h.clock.Advance(time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, 1, c.Time)
	assert.Equal(t, 1, c.Cycle)
	assert.Equal(t, "before_kick_off", c.PlayMode)
	assert.Equal(t, 3, c.Self.Unum)
	assert.True(t, c.World.Current())
	assert.True(t, c.World.Ball().Seen())
	require.Len(t, c.World.Players(), 1)
	assert.Equal(t, observe.TeamOpponent, c.World.Players()[0].Team)
	assert.Same(t, c, h.c.Snapshot())
}

func TestCoordinator_SnapshotBeforeFirstCycle(t *testing.T) {
	h := newHarness(t, nil)
	c := h.c.Snapshot()
	require.NotNil(t, c)
	assert.Empty(t, c.World.Players())
	assert.Equal(t, observe.StatusLost, c.World.Ball().Status)
}

func TestCoordinator_VisionWaitsForTelemetry(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(senseBody(1, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	h.nextCycle()

	// Vision for cycle 2 overtakes its telemetry.
	h.dispatch("(see 2 ((b) 5 0))", senseBody(2, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, 2, c.Time)
	assert.True(t, c.World.Ball().Seen())
}

func TestCoordinator_ParkedVisionAppliedOnTimer(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(senseBody(1, 0))
	h.waitTimers(1)
	h.dispatch("(see 2 ((b) 5 0))")
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, 1, c.Time)
	assert.True(t, c.World.Ball().Seen(), "stale telemetry never blocks the cycle")
}

func TestCoordinator_LateVisionDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(senseBody(1, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	h.nextCycle()

	h.dispatch("(see 1 ((b) 5 0))", senseBody(2, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, observe.StatusLost, c.World.Ball().Status)
}

func TestCoordinator_NextBoundaryCompletesPreviousCycle(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(senseBody(1, 0))
	h.waitTimers(1)
	h.dispatch(senseBody(2, 0))

	first := h.nextCycle()
	assert.Equal(t, 1, first.Time)
	h.waitTimers(1)

	h.clock.Advance(20 * time.Millisecond)
	second := h.nextCycle()
	assert.Equal(t, 2, second.Time)
	assert.Equal(t, 2, second.Cycle)

	h.clock.Advance(time.Second)
	assert.Equal(t, 0, h.clock.PendingTimers())
	select {
	case c := <-h.cycles:
		t.Fatalf("cycle %d completed twice", c.Time)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCoordinator_ServerOffsetExtendsWait(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch("(server_param (synch_see_offset 30))", senseBody(1, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	assert.Equal(t, 1, h.clock.PendingTimers())
	h.clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, h.nextCycle().Time)
}

func TestCoordinator_Messages(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch("(init l 3 before_kick_off)", senseBody(1, 0))
	h.waitTimers(1)
	h.dispatch(
		`(hear 1 30 our 7 "pass")`,
		`(hear 1 self "mine")`,
		`(hear 1 online_coach_right "theirs")`,
		`(hear 1 online_coach_left "ours")`,
		`(hear 1 -10 opp "decoy")`,
	)
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	require.Len(t, c.Messages, 3)
	assert.Equal(t, "pass", c.Messages[0].Text)
	assert.Equal(t, observe.TeamOurs, c.Messages[0].Team)
	assert.Equal(t, 7, c.Messages[0].Unum)
	assert.Equal(t, "ours", c.Messages[1].Text)
	assert.Equal(t, observe.TeamOpponent, c.Messages[2].Team)

	// Heard after completion: delivered with the next cycle.
	h.dispatch(`(hear 1 30 our 8 "late")`, senseBody(2, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	c = h.nextCycle()
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "late", c.Messages[0].Text)
}

func TestCoordinator_RefereeAndTermination(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch("(init r 2 before_kick_off)", senseBody(1, 0))
	h.waitTimers(1)
	h.dispatch("(hear 1 referee kick_off_r)", "(hear 1 referee goal_r_1)")
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, "kick_off_r", c.PlayMode)
	assert.Equal(t, 1, c.Goals)
	assert.Equal(t, "goal_r", c.LastEvent)
	assert.Empty(t, c.Messages)
	assert.InDelta(t, 180.0, c.Self.Pose.Heading, 1e-9)

	h.dispatch(senseBody(2, 0))
	h.waitTimers(1)
	h.dispatch("(hear 2 referee time_over)")
	h.clock.Advance(20 * time.Millisecond)

	assert.False(t, h.c.AwaitNextCycle())
	assert.False(t, h.c.AwaitNextCycle())
	assert.Equal(t, "time_over", h.c.Snapshot().PlayMode)
}

func TestCoordinator_ConfirmsCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(senseBody(1, 0))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	h.nextCycle()

	dash := selfpose.Dash(100, 0)
	turn := selfpose.Turn(30)
	require.NoError(t, h.c.SetLastCommands([]*selfpose.Command{dash, turn}))
	h.dispatch(senseBody(2, 1))
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	h.nextCycle()

	assert.True(t, dash.Executed())
	assert.False(t, turn.Executed())
}

func TestCoordinator_ChangePlayerType(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(
		"(init l 3 before_kick_off)",
		"(player_type (id 4) (player_speed_max 1.2) (player_decay 0.45))",
		"(change_player_type 5)",
		"(change_player_type 3 4)",
		senseBody(1, 0),
	)
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)
	h.nextCycle()

	assert.InDelta(t, 1.2, h.estimator.Params().PlayerSpeedMax, 1e-12)
	assert.InDelta(t, 0.45, h.estimator.Params().PlayerDecay, 1e-12)
}

func TestCoordinator_IgnoresUnknownAndMalformed(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch(
		"(bogus 1 2 3)",
		"not an s-expression",
		"(sense_body 1 (view_mode high normal))",
		"(warning no_such_command)",
		"(ok say)",
		senseBody(1, 0),
	)
	h.waitTimers(1)
	h.dispatch("(see 1 ((b) oops))")
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, 1, c.Time)
	assert.Equal(t, observe.StatusLost, c.World.Ball().Status)
}

func TestCoordinator_FullState(t *testing.T) {
	h := newHarness(t, nil)
	h.dispatch("(init l 1 before_kick_off)", senseBody(7, 0))
	h.waitTimers(1)
	h.dispatch("(fullstate 7 (pmode play_on) (score 0 0) ((b) 3 -4 0.5 0.25) " +
		"((p l 1 g) -50 0 0 0 0 0) ((p r 9 3) 10 5 0.2 0.1 -90 30))")
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	ball, ok := c.World.ExactBall()
	require.True(t, ok)
	assert.InDelta(t, 3.0, ball.Position.X, 1e-12)
	opp, ok := c.World.ExactOpps(9)
	require.True(t, ok)
	assert.InDelta(t, 10.0, opp.Position.X, 1e-12)
	_, ok = c.World.ExactOurs(1)
	assert.True(t, ok)
}

func TestCoordinator_CoachCyclesOnGlobalVision(t *testing.T) {
	cfg := config.EmptyPerceptionConfig()
	kind := config.AgentCoach
	cfg.AgentKind = &kind
	h := newHarness(t, cfg)

	h.dispatch(`(see_global 5 ((b) 1 2 0.5 0) ((p "Pitchside" 3) -10 5 0.1 0.2 45 0) ((p "Other" 1) 30 0 0 0 0 0))`)
	h.waitTimers(1)
	h.clock.Advance(20 * time.Millisecond)

	c := h.nextCycle()
	assert.Equal(t, 5, c.Time)
	require.Len(t, c.World.Players(), 2)
	assert.Len(t, c.World.Ours(), 1)
	assert.InDelta(t, 1.0, c.World.Ball().Position.X, 1e-12)
	assert.InDelta(t, 2.0, c.World.Ball().Position.Y, 1e-12)
}

func TestCoordinator_ClosedAfterRun(t *testing.T) {
	c := New(Options{Clock: timeutil.NewMockClock(time.Unix(0, 0))})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	require.NoError(t, c.Dispatch(senseBody(1, 0)))
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.ErrorIs(t, c.Dispatch(senseBody(2, 0)), ErrClosed)
	assert.ErrorIs(t, c.SetLastCommands(nil), ErrClosed)
	assert.False(t, c.AwaitNextCycle())
}
