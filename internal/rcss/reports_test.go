package rcss

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const senseBodyV15 = "(sense_body 34 (view_mode high wide) (stamina 7880.5 0.98 128000) (speed 0.42 -12) " +
	"(head_angle 30) (kick 1) (dash 12) (turn 3) (say 0) (turn_neck 4) (catch 0) (move 1) (change_view 2) " +
	"(arm (movable 0) (expires 0) (target 5.5 20) (count 6)) (focus (target l 7) (count 1)) " +
	"(tackle (expires 0) (count 0)) (collision (ball) (post)) (foul (charged 0) (card yellow)))"

func mustParse(t *testing.T, s string) Node {
	t.Helper()
	n, err := Parse(s)
	require.NoError(t, err)
	return n
}

func TestParseSenseBody(t *testing.T) {
	t.Parallel()

	sb, err := ParseSenseBody(mustParse(t, senseBodyV15))
	require.NoError(t, err)

	want := SenseBody{
		Time:            34,
		ViewQuality:     "high",
		ViewWidth:       "wide",
		Stamina:         7880.5,
		Effort:          0.98,
		StaminaCapacity: 128000,
		Speed:           0.42,
		SpeedDirection:  -12,
		HeadAngle:       30,
		Counts:          Counters{1, 12, 3, 0, 4, 0, 1, 2, 6},
		Arm:             Arm{TargetDistance: 5.5, TargetDirection: 20, Count: 6},
		Focus:           Focus{Side: "l", Unum: 7, Count: 1},
		Collisions:      []string{"ball", "post"},
		Foul:            Foul{Card: "yellow"},
	}
	if diff := cmp.Diff(want, sb); diff != "" {
		t.Errorf("ParseSenseBody mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 180.0, sb.ViewAngle())
}

func TestParseSenseBodyLegacy(t *testing.T) {
	t.Parallel()
	sb, err := ParseSenseBody(mustParse(t, "(sense_body 0 (view_mode high narrow) (stamina 4000 1) (speed 0 0) (head_angle 0) "+
		"(kick 0) (dash 0) (turn 0) (say 0) (turn_neck 0) (catch 0) (move 0) (change_view 0))"))
	require.NoError(t, err)
	assert.Equal(t, 4000.0, sb.Stamina)
	assert.Equal(t, 60.0, sb.ViewAngle())
	assert.Equal(t, 0, sb.Counts[CounterPointTo])
}

func TestParseSenseBodyGrammarErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"wrong head":      "(see 1 ((b) 1 2))",
		"bad time":        "(sense_body x (view_mode high normal))",
		"missing records": "(sense_body 1 (view_mode high normal))",
		"out of order": "(sense_body 1 (view_mode high normal) (speed 0 0) (stamina 1 1 1) (head_angle 0) " +
			"(kick 0) (dash 0) (turn 0) (say 0) (turn_neck 0) (catch 0) (move 0) (change_view 0))",
		"bad number": "(sense_body 1 (view_mode high normal) (stamina a 1 1) (speed 0 0) (head_angle 0) " +
			"(kick 0) (dash 0) (turn 0) (say 0) (turn_neck 0) (catch 0) (move 0) (change_view 0))",
		"optional out of order": "(sense_body 1 (view_mode high normal) (stamina 1 1 1) (speed 0 0) (head_angle 0) " +
			"(kick 0) (dash 0) (turn 0) (say 0) (turn_neck 0) (catch 0) (move 0) (change_view 0) " +
			"(tackle (expires 0) (count 0)) (arm (movable 0) (expires 0) (target 0 0) (count 0)))",
	}
	for name, report := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSenseBody(mustParse(t, report))
			assert.ErrorIs(t, err, ErrGrammar)
		})
	}
}

func TestParseSee(t *testing.T) {
	t.Parallel()
	s, err := ParseSee(mustParse(t, `(see 12 ((f c) 10.2 -3) ((g r) 40 5) ((b) 5.5 12 0.1 -0.4) `+
		`((p "Blue" 7 goalie) 20 30 0.5 1 45 10 k) ((p "Red") 30 -5) ((P) 1.5 170) ((l r) 30 40))`))
	require.NoError(t, err)

	want := See{
		Time: 12,
		Objects: []SeenObject{
			{Kind: ObjectFlag, Name: "f c", Values: []float64{10.2, -3}},
			{Kind: ObjectGoal, Name: "g r", Values: []float64{40, 5}},
			{Kind: ObjectBall, Name: "b", Values: []float64{5.5, 12, 0.1, -0.4}},
			{Kind: ObjectPlayer, Name: "p", Team: "Blue", Unum: 7, Goalie: true, Values: []float64{20, 30, 0.5, 1, 45, 10}, Kicking: true},
			{Kind: ObjectPlayer, Name: "p", Team: "Red", Values: []float64{30, -5}},
			{Kind: ObjectPlayer, Name: "P", Close: true, Values: []float64{1.5, 170}},
			{Kind: ObjectLine, Name: "l r", Values: []float64{30, 40}},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("ParseSee mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSeeGlobal(t *testing.T) {
	t.Parallel()
	s, err := ParseSee(mustParse(t, `(see_global 99 ((g l) -52.5 0) ((b) 1 2 0.5 0) ((p "Blue" 3) -10 5 0.1 0.2 45 0))`))
	require.NoError(t, err)
	assert.True(t, s.Global)
	require.Len(t, s.Objects, 3)
	assert.Equal(t, []float64{-10, 5, 0.1, 0.2, 45, 0}, s.Objects[2].Values)
}

func TestParseSeeErrors(t *testing.T) {
	t.Parallel()
	for _, report := range []string{
		"(see 1 (f c))",
		"(see 1 ((x) 1 2))",
		"(see 1 ((b)))",
		"(see 1 ((b) 1 abc))",
		`(see 1 ((p "Blue" seven) 1 2))`,
	} {
		_, err := ParseSee(mustParse(t, report))
		assert.ErrorIs(t, err, ErrGrammar, report)
	}
}

func TestParseHear(t *testing.T) {
	t.Parallel()
	tests := []struct {
		report string
		want   Hear
	}{
		{"(hear 0 referee kick_off_l)", Hear{Sender: SenderReferee, Text: "kick_off_l"}},
		{`(hear 5 self "pass")`, Hear{Time: 5, Sender: SenderSelf, Text: "pass"}},
		{`(hear 12 -30 our 7 "ball 10 20")`, Hear{Time: 12, Sender: SenderTeammate, Direction: -30, Unum: 7, Text: "ball 10 20"}},
		{`(hear 12 45 opp "decoy")`, Hear{Time: 12, Sender: SenderOpponent, Direction: 45, Text: "decoy"}},
		{`(hear 12 45 "old")`, Hear{Time: 12, Sender: SenderPlayer, Direction: 45, Text: "old"}},
		{`(hear 30 online_coach_left (info (6000 (true) (do our {1} (pos (rec (pt 0 0) (pt 10 10)))))))`,
			Hear{Time: 30, Sender: SenderOnlineCoachLeft, Text: "(info (6000 (true) (do our {1} (pos (rec (pt 0 0) (pt 10 10))))))"}},
		{`(hear 30 online_coach_right "go")`, Hear{Time: 30, Sender: SenderOnlineCoachRight, Text: "go"}},
		{`(hear 40 coach "reset")`, Hear{Time: 40, Sender: SenderTrainer, Text: "reset"}},
		{`(hear 41 (p "Blue" 9) "ready")`, Hear{Time: 41, Sender: SenderPlayerToTrainer, Team: "Blue", Unum: 9, Text: "ready"}},
	}
	for _, tt := range tests {
		got, err := ParseHear(mustParse(t, tt.report))
		require.NoError(t, err, tt.report)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseHear(%s) mismatch (-want +got):\n%s", tt.report, diff)
		}
	}
}

func TestParseHearErrors(t *testing.T) {
	t.Parallel()
	for _, report := range []string{
		"(hear 0 referee)",
		"(hear 1 somebody \"x\")",
		"(hear 1 30 our x \"y\")",
		"(hear 1 (b) \"x\")",
	} {
		_, err := ParseHear(mustParse(t, report))
		assert.ErrorIs(t, err, ErrGrammar, report)
	}
	assert.Equal(t, "our", SenderTeammate.String())
}

func TestParseFullState(t *testing.T) {
	t.Parallel()
	fs, err := ParseFullState(mustParse(t, "(fullstate 77 (pmode play_on) (vmode high normal) (count 0 0 0 0 0 0 0 0) "+
		"(score 1 2) ((b) 3 -4 0.5 0.25) "+
		"((p l 1 g) -50 0 0 0 0 0 (stamina 8000 1 1 130000)) ((p r 9 3) 10 5 0.2 0.1 -90 30 (stamina 7000 0.9 1 120000)))"))
	require.NoError(t, err)

	want := FullState{
		Time:     77,
		PlayMode: "play_on",
		ScoreL:   1,
		ScoreR:   2,
		Ball:     &GlobalBall{X: 3, Y: -4, VX: 0.5, VY: 0.25},
		Players: []GlobalPlayer{
			{Side: SideLeft, Unum: 1, Goalie: true, X: -50, Stamina: 8000, Effort: 1, Recovery: 1, Capacity: 130000},
			{Side: SideRight, Unum: 9, PlayerType: 3, X: 10, Y: 5, VX: 0.2, VY: 0.1, Body: -90, Neck: 30, Stamina: 7000, Effort: 0.9, Recovery: 1, Capacity: 120000},
		},
	}
	if diff := cmp.Diff(want, fs); diff != "" {
		t.Errorf("ParseFullState mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseFullState(mustParse(t, "(fullstate 1 ((p x 1) 0 0 0 0 0 0))"))
	assert.ErrorIs(t, err, ErrGrammar)
	_, err = ParseFullState(mustParse(t, "(fullstate 1 ((b) 0 0))"))
	assert.ErrorIs(t, err, ErrGrammar)
}

func TestServerParams(t *testing.T) {
	t.Parallel()
	p := DefaultServerParams()
	err := p.ApplyServerParam(mustParse(t, "(server_param (goal_width 14.02) (player_decay 0.5) (synch_see_offset 30) "+
		"(fullstate_l 1) (fullstate_r 0) (quantize_step_l 0.02))"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.PlayerDecay)
	assert.Equal(t, 30, p.SynchSeeOffset)
	assert.Equal(t, 0.02, p.QuantizeStepL)
	assert.True(t, p.FullState(SideLeft))
	assert.False(t, p.FullState(SideRight))
	assert.Equal(t, 0.94, p.BallDecay, "untouched parameters keep their defaults")

	err = p.ApplyServerParam(mustParse(t, "(server_param (ball_decay x) (ball_speed_max 2.7))"))
	assert.ErrorIs(t, err, ErrGrammar)
	assert.Equal(t, 2.7, p.BallSpeedMax, "valid parameters still apply")
	assert.Equal(t, 0.94, p.BallDecay, "malformed values keep the previous value")
}

func TestPlayerType(t *testing.T) {
	t.Parallel()
	pt, err := ParsePlayerType(mustParse(t, "(player_type (id 4) (player_speed_max 1.2) (player_decay 0.45) "+
		"(inertia_moment 6.1) (dash_power_rate 0.0055) (player_size 0.3) (kickable_margin 0.75))"))
	require.NoError(t, err)
	assert.Equal(t, 4, pt.ID)

	p := pt.Apply(DefaultServerParams())
	assert.Equal(t, 1.2, p.PlayerSpeedMax)
	assert.Equal(t, 6.1, p.InertiaMoment)
	assert.Equal(t, 0.0055, p.DashPowerRate)
	assert.Equal(t, 1.0, p.EffortMax, "unset values do not override")

	_, err = ParsePlayerType(mustParse(t, "(player_type (player_speed_max 1.2))"))
	assert.ErrorIs(t, err, ErrGrammar)
}

func TestParseSession(t *testing.T) {
	t.Parallel()
	in, err := ParseInit(mustParse(t, "(init r 7 before_kick_off)"))
	require.NoError(t, err)
	assert.Equal(t, Init{Side: SideRight, Unum: 7, PlayMode: "before_kick_off"}, in)

	in, err = ParseInit(mustParse(t, "(init l ok)"))
	require.NoError(t, err)
	assert.Equal(t, Init{Side: SideLeft}, in)

	cpt, err := ParseChangePlayerType(mustParse(t, "(change_player_type 3 5)"))
	require.NoError(t, err)
	assert.Equal(t, ChangePlayerType{Unum: 3, Type: 5, HasType: true}, cpt)

	cpt, err = ParseChangePlayerType(mustParse(t, "(change_player_type 8)"))
	require.NoError(t, err)
	assert.False(t, cpt.HasType)

	sc, err := ParseScore(mustParse(t, "(score 600 2 1)"))
	require.NoError(t, err)
	assert.Equal(t, Score{Time: 600, Ours: 2, Theirs: 1}, sc)
}
