package rcss

import (
	"fmt"
	"strconv"
)

// Side is the half of the pitch a team starts on.
type Side string

const (
	SideLeft  Side = "l"
	SideRight Side = "r"
)

// ServerParams holds the simulator constants the perception models depend
// on. DefaultServerParams matches the stock server configuration; values
// are replaced as server_param reports arrive.
type ServerParams struct {
	QuantizeStep   float64 // moving objects
	QuantizeStepL  float64 // landmarks
	PlayerDecay    float64
	BallDecay      float64
	BallSpeedMax   float64
	PlayerSpeedMax float64
	PlayerRand     float64
	InertiaMoment  float64
	DashPowerRate  float64
	EffortMax      float64
	VisibleAngle   float64
	SynchSeeOffset int // milliseconds
	SimulatorStep  int // milliseconds
	FullStateL     bool
	FullStateR     bool
}

// DefaultServerParams returns the stock server constants.
func DefaultServerParams() ServerParams {
	return ServerParams{
		QuantizeStep:   0.1,
		QuantizeStepL:  0.01,
		PlayerDecay:    0.4,
		BallDecay:      0.94,
		BallSpeedMax:   3.0,
		PlayerSpeedMax: 1.05,
		PlayerRand:     0.1,
		InertiaMoment:  5.0,
		DashPowerRate:  0.006,
		EffortMax:      1.0,
		VisibleAngle:   90.0,
		SynchSeeOffset: 0,
		SimulatorStep:  100,
	}
}

// FullState reports whether exact-state sensing is enabled for a side.
func (p ServerParams) FullState(side Side) bool {
	if side == SideRight {
		return p.FullStateR
	}
	return p.FullStateL
}

// ApplyServerParam updates p from a parsed (server_param ...) report.
// Unknown parameters are ignored; a malformed value is an error and leaves
// the remaining parameters applied.
func (p *ServerParams) ApplyServerParam(n Node) error {
	if n.Head() != "server_param" {
		return fmt.Errorf("expected server_param, got %q: %w", n.Head(), ErrGrammar)
	}
	floats := map[string]*float64{
		"quantize_step":    &p.QuantizeStep,
		"quantize_step_l":  &p.QuantizeStepL,
		"player_decay":     &p.PlayerDecay,
		"ball_decay":       &p.BallDecay,
		"ball_speed_max":   &p.BallSpeedMax,
		"player_speed_max": &p.PlayerSpeedMax,
		"player_rand":      &p.PlayerRand,
		"inertia_moment":   &p.InertiaMoment,
		"dash_power_rate":  &p.DashPowerRate,
		"effort_max":       &p.EffortMax,
		"visible_angle":    &p.VisibleAngle,
	}
	ints := map[string]*int{
		"synch_see_offset": &p.SynchSeeOffset,
		"simulator_step":   &p.SimulatorStep,
	}
	bools := map[string]*bool{
		"fullstate_l": &p.FullStateL,
		"fullstate_r": &p.FullStateR,
	}

	var firstErr error
	for _, c := range n.List[1:] {
		name := c.Head()
		if name == "" || c.Len() < 2 {
			continue
		}
		var err error
		switch {
		case floats[name] != nil:
			var v float64
			if v, err = c.Float(1); err == nil {
				*floats[name] = v
			}
		case ints[name] != nil:
			var v int
			if v, err = c.Int(1); err == nil {
				*ints[name] = v
			}
		case bools[name] != nil:
			var v bool
			if v, err = parseBool(c.Child(1).Atom); err == nil {
				*bools[name] = v
			}
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("server_param %s: %w", name, err)
		}
	}
	return firstErr
}

// PlayerType is one heterogeneous player type announced by the server.
type PlayerType struct {
	ID             int
	PlayerSpeedMax float64
	PlayerDecay    float64
	InertiaMoment  float64
	DashPowerRate  float64
	PlayerSize     float64
	KickableMargin float64
	KickRand       float64
	ExtraStamina   float64
	EffortMax      float64
	EffortMin      float64
}

// ParsePlayerType decodes a (player_type ...) report.
func ParsePlayerType(n Node) (PlayerType, error) {
	if n.Head() != "player_type" {
		return PlayerType{}, fmt.Errorf("expected player_type, got %q: %w", n.Head(), ErrGrammar)
	}
	pt := PlayerType{ID: -1}
	floats := map[string]*float64{
		"player_speed_max": &pt.PlayerSpeedMax,
		"player_decay":     &pt.PlayerDecay,
		"inertia_moment":   &pt.InertiaMoment,
		"dash_power_rate":  &pt.DashPowerRate,
		"player_size":      &pt.PlayerSize,
		"kickable_margin":  &pt.KickableMargin,
		"kick_rand":        &pt.KickRand,
		"extra_stamina":    &pt.ExtraStamina,
		"effort_max":       &pt.EffortMax,
		"effort_min":       &pt.EffortMin,
	}
	for _, c := range n.List[1:] {
		name := c.Head()
		if name == "id" {
			id, err := c.Int(1)
			if err != nil {
				return PlayerType{}, err
			}
			pt.ID = id
			continue
		}
		if dst := floats[name]; dst != nil {
			v, err := c.Float(1)
			if err != nil {
				return PlayerType{}, fmt.Errorf("player_type %s: %w", name, err)
			}
			*dst = v
		}
	}
	if pt.ID < 0 {
		return PlayerType{}, fmt.Errorf("player_type without id: %w", ErrGrammar)
	}
	return pt, nil
}

// Apply returns a copy of p with the movement constants of the player type.
func (pt PlayerType) Apply(p ServerParams) ServerParams {
	if pt.PlayerSpeedMax > 0 {
		p.PlayerSpeedMax = pt.PlayerSpeedMax
	}
	if pt.PlayerDecay > 0 {
		p.PlayerDecay = pt.PlayerDecay
	}
	if pt.InertiaMoment > 0 {
		p.InertiaMoment = pt.InertiaMoment
	}
	if pt.DashPowerRate > 0 {
		p.DashPowerRate = pt.DashPowerRate
	}
	if pt.EffortMax > 0 {
		p.EffortMax = pt.EffortMax
	}
	return p
}

func parseBool(s string) (bool, error) {
	switch s {
	case "on", "true":
		return true, nil
	case "off", "false":
		return false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, fmt.Errorf("bad boolean %q: %w", s, ErrGrammar)
	}
	return v != 0, nil
}
