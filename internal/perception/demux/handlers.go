package demux

import (
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/tracker"
	"github.com/banshee-data/pitchside/internal/rcss"
)

func (c *Coordinator) handleReport(ev event) {
	switch ev.class {
	case rcss.KindUnknown:
		monitoring.Verbosef("[Demux] dropping unrecognised report %.40q", ev.report)
		return
	case rcss.KindOK:
		monitoring.Verbosef("[Demux] %s", ev.report)
		return
	case rcss.KindWarning, rcss.KindError:
		monitoring.Logf("[Demux] server %s", ev.report)
		return
	}

	node, err := rcss.Parse(ev.report)
	if err != nil {
		monitoring.Logf("[Demux] %s: %v", ev.class, err)
		return
	}

	switch ev.class {
	case rcss.KindSenseBody:
		c.onSenseBody(node)
	case rcss.KindSee, rcss.KindSeeGlobal, rcss.KindFullState:
		c.onVision(ev.class, node)
	case rcss.KindHear:
		c.onHear(node)
	case rcss.KindInit, rcss.KindReconnect:
		c.onInit(node)
	case rcss.KindServerParam:
		if err := c.params.ApplyServerParam(node); err != nil {
			monitoring.Logf("[Demux] server_param: %v", err)
		}
		c.applyParams()
	case rcss.KindPlayerType:
		pt, err := rcss.ParsePlayerType(node)
		if err != nil {
			monitoring.Logf("[Demux] player_type: %v", err)
			return
		}
		c.playerTypes[pt.ID] = pt
	case rcss.KindChangePlayerType:
		c.onChangePlayerType(node)
	case rcss.KindScore:
		s, err := rcss.ParseScore(node)
		if err != nil {
			monitoring.Logf("[Demux] score: %v", err)
			return
		}
		c.game.SetScore(s.Ours, s.Theirs)
	case rcss.KindPlayerParam:
		monitoring.Verbosef("[Demux] player_param ignored")
	}
}

func (c *Coordinator) onSenseBody(node rcss.Node) {
	sb, err := rcss.ParseSenseBody(node)
	if err != nil {
		monitoring.Logf("[Demux] sense_body: %v", err)
		return
	}
	if c.startsCycle(rcss.KindSenseBody) {
		c.beginCycle(sb.Time)
	}
	c.estimator.Ingest(sb)
	c.acc.telemetryAt = sb.Time
	c.drainStage2(false)
}

// onVision applies or parks a see, see_global or fullstate report.
func (c *Coordinator) onVision(class rcss.Kind, node rcss.Node) {
	t, err := node.Int(1)
	if err != nil {
		monitoring.Logf("[Demux] %s time: %v", class, err)
		return
	}
	if c.startsCycle(class) {
		c.beginCycle(t)
		c.applyVision(class, node)
		return
	}
	if c.hasTelemetry() && t > c.acc.telemetryAt {
		c.stage2 = append(c.stage2, parked{class: class, time: t, node: node})
		return
	}
	if c.acc.completed || !c.acc.started || t < c.acc.time {
		monitoring.Verbosef("[Demux] dropping late %s for cycle %d", class, t)
		return
	}
	c.applyVision(class, node)
}

func (c *Coordinator) applyVision(class rcss.Kind, node rcss.Node) {
	if class == rcss.KindFullState {
		c.applyFullState(node)
		return
	}
	see, err := rcss.ParseSee(node)
	if err != nil {
		monitoring.Logf("[Demux] %s: %v", class, err)
		return
	}
	if see.Global {
		c.applySeeGlobal(see)
		return
	}
	c.acc.current = true
	for i := range see.Objects {
		obj := see.Objects[i]
		switch obj.Kind {
		case rcss.ObjectFlag, rcss.ObjectGoal:
			c.acc.landmarks = append(c.acc.landmarks, obj)
		case rcss.ObjectPlayer:
			c.acc.players = append(c.acc.players, obj)
		case rcss.ObjectBall:
			c.acc.ball = &obj
		}
	}
}

func (c *Coordinator) applySeeGlobal(see rcss.See) {
	c.acc.current = true
	team := c.cfg.GetTeamName()
	for _, obj := range see.Objects {
		switch obj.Kind {
		case rcss.ObjectPlayer:
			c.acc.global = append(c.acc.global, observe.NewGlobalBody(obj, team))
		case rcss.ObjectBall:
			if len(obj.Values) >= 4 {
				b := observe.NewGlobalBall(obj.Values[0], obj.Values[1], obj.Values[2], obj.Values[3])
				c.acc.globalBall = &b
			}
		}
	}
}

func (c *Coordinator) applyFullState(node rcss.Node) {
	fs, err := rcss.ParseFullState(node)
	if err != nil {
		monitoring.Logf("[Demux] fullstate: %v", err)
		return
	}
	c.acc.exact = c.acc.exact[:0]
	for _, p := range fs.Players {
		c.acc.exact = append(c.acc.exact, observe.NewExactBody(p, c.side))
	}
	if fs.Ball != nil {
		b := observe.NewGlobalBall(fs.Ball.X, fs.Ball.Y, fs.Ball.VX, fs.Ball.VY)
		c.acc.exactBall = &b
	}
}

func (c *Coordinator) onHear(node rcss.Node) {
	h, err := rcss.ParseHear(node)
	if err != nil {
		monitoring.Logf("[Demux] hear: %v", err)
		return
	}
	msg := Message{Time: h.Time, Sender: h.Sender, Direction: h.Direction, Unum: h.Unum, Text: h.Text}
	switch h.Sender {
	case rcss.SenderReferee:
		c.game.Referee(h.Text)
		if c.game.Over() && c.acc.completed {
			c.gate.Terminate()
		}
		return
	case rcss.SenderSelf:
		return
	case rcss.SenderOnlineCoachLeft, rcss.SenderOnlineCoachRight:
		ours := rcss.SenderOnlineCoachLeft
		if c.side == rcss.SideRight {
			ours = rcss.SenderOnlineCoachRight
		}
		if h.Sender != ours {
			return
		}
		msg.Team = observe.TeamOurs
	case rcss.SenderTeammate:
		msg.Team = observe.TeamOurs
	case rcss.SenderOpponent:
		msg.Team = observe.TeamOpponent
	case rcss.SenderPlayerToTrainer:
		msg.Team = observe.TeamOf(h.Team, c.cfg.GetTeamName())
	}
	if c.acc.completed {
		c.late = append(c.late, msg)
		return
	}
	c.acc.messages = append(c.acc.messages, msg)
}

func (c *Coordinator) onInit(node rcss.Node) {
	in, err := rcss.ParseInit(node)
	if err != nil {
		monitoring.Logf("[Demux] init: %v", err)
		return
	}
	if in.Side != "" {
		c.side = in.Side
	}
	if in.Unum != 0 {
		c.unum = in.Unum
	}
	c.estimator.SetIdentity(c.side, c.unum)
	c.game.SetSide(c.side)
	c.game.SetPlayMode(in.PlayMode)
	monitoring.Logf("[Demux] joined as %s %d (%s)", c.side, c.unum, c.game.PlayMode())
}

func (c *Coordinator) onChangePlayerType(node rcss.Node) {
	cpt, err := rcss.ParseChangePlayerType(node)
	if err != nil {
		monitoring.Logf("[Demux] change_player_type: %v", err)
		return
	}
	if !cpt.HasType {
		monitoring.Verbosef("[Demux] opponent %d changed player type", cpt.Unum)
		return
	}
	if cpt.Unum != c.unum {
		monitoring.Verbosef("[Demux] teammate %d changed to type %d", cpt.Unum, cpt.Type)
		return
	}
	pt, ok := c.playerTypes[cpt.Type]
	if !ok {
		monitoring.Logf("[Demux] change_player_type: unknown type %d", cpt.Type)
		return
	}
	c.ourType = &pt
	c.applyParams()
	monitoring.Logf("[Demux] now player type %d", pt.ID)
}

// applyParams pushes the simulator constants to the models. Our own
// heterogeneous type only affects the self motion model.
func (c *Coordinator) applyParams() {
	own := c.params
	if c.ourType != nil {
		own = c.ourType.Apply(own)
	}
	c.estimator.SetParams(own)
	c.tracker.SetParams(c.params)
}

func (c *Coordinator) landmarks() []observe.Landmark {
	out := make([]observe.Landmark, 0, len(c.acc.landmarks))
	for _, obj := range c.acc.landmarks {
		l, err := observe.NewLandmark(obj, c.params, c.side)
		if err != nil {
			monitoring.Verbosef("[Demux] %v", err)
			continue
		}
		out = append(out, l)
	}
	return out
}

// frame converts this cycle's sightings with the freshly localized pose.
func (c *Coordinator) frame() tracker.Frame {
	ego := c.estimator.Pose()
	vel := c.estimator.Velocity()
	team := c.cfg.GetTeamName()

	players := append([]observe.Body(nil), c.acc.global...)
	for _, obj := range c.acc.players {
		b := observe.NewSightedBody(obj, ego, vel, c.params, team)
		if !b.Seen() {
			continue
		}
		players = append(players, b)
	}

	ball := observe.LostBall()
	switch {
	case c.acc.globalBall != nil:
		ball = *c.acc.globalBall
	case c.acc.ball != nil:
		ball = observe.NewSightedBall(*c.acc.ball, ego, vel, c.params)
	}

	return tracker.Frame{
		Time:      c.acc.time,
		Current:   c.acc.current,
		Players:   players,
		Ball:      ball,
		Exact:     append([]observe.Body(nil), c.acc.exact...),
		ExactBall: c.acc.exactBall,
		Ego:       ego,
		ViewAngle: c.estimator.ViewAngle(),
	}
}
