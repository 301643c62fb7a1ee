package observe

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Ball is a ball sighting, or the tracker's extrapolation of one.
type Ball struct {
	Distance        float64        `json:"distance"`
	Direction       float64        `json:"direction"`
	DistanceChange  float64        `json:"-"`
	DirectionChange float64        `json:"-"`
	Position        geometry.Vec   `json:"position"`
	Velocity        geometry.Vec   `json:"velocity"`
	VelocitySource  VelocitySource `json:"velocity_source"`
	DistanceError   float64        `json:"distance_error"`
	Status          Status         `json:"status"`
	TimeToLive      int            `json:"ttl"`
}

// LostBall is the ball state before it has ever been seen.
func LostBall() Ball {
	return Ball{Status: StatusLost, VelocitySource: VelocityNone}
}

// NewSightedBall builds the ball from an egocentric see object.
func NewSightedBall(obj rcss.SeenObject, ego geometry.Pose, egoVel geometry.Vec, params rcss.ServerParams) Ball {
	b := LostBall()
	v := obj.Values
	switch len(v) {
	case 0, 1, 3:
		return b
	case 2:
		b.Distance, b.Direction = v[0], v[1]
		b.Status = StatusPosition
	default:
		b.Distance, b.Direction = v[0], v[1]
		b.DistanceChange, b.DirectionChange = v[2], v[3]
		b.Status = StatusLocalized
	}
	source := ego.Face() + b.Direction
	b.Position = r2.Add(ego.Point(), geometry.Polar(b.Distance, source))
	b.DistanceError = quantizationError(b.Distance, params.QuantizeStep)
	if b.Status == StatusLocalized {
		rel := relativeVelocity(b.Distance, source, b.DistanceChange, b.DirectionChange)
		b.Velocity = r2.Add(egoVel, rel)
		b.VelocitySource = VelocityMeasured
	}
	return b
}

// NewGlobalBall builds the ball from absolute x, y, vx, vy values.
func NewGlobalBall(x, y, vx, vy float64) Ball {
	return Ball{
		Position:       geometry.Vec{X: x, Y: y},
		Velocity:       geometry.Vec{X: vx, Y: vy},
		VelocitySource: VelocityMeasured,
		Status:         StatusLocalized,
	}
}

// Seen reports whether the ball was directly observed this cycle.
func (b Ball) Seen() bool {
	return b.Status == StatusPosition || b.Status == StatusLocalized
}
