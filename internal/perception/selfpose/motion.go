package selfpose

import (
	"math"

	"github.com/banshee-data/pitchside/internal/rcss"
)

// Control is the confirmed actuation of one cycle.
type Control struct {
	DashPower     float64
	DashDirection float64
	TurnMoment    float64
}

// Motion is the forward model input for one cycle: the confirmed control
// plus the previous cycle's speed and effort.
type Motion struct {
	Control
	PastSpeed float64
	Effort    float64
	Params    rcss.ServerParams
}

// Step returns the speed and turn (degrees) for this cycle. powerNoise and
// turnNoise scale the commanded power and moment; both are 1 when
// dead-reckoning.
func (m Motion) Step(powerNoise, turnNoise float64) (speed, turn float64) {
	speed = m.PastSpeed + m.Effort*m.Params.DashPowerRate*m.DashPower*powerNoise
	speed = math.Max(0, math.Min(speed, m.Params.PlayerSpeedMax))
	turn = m.TurnMoment * turnNoise / (1 + m.Params.InertiaMoment*speed)
	return speed, turn
}
