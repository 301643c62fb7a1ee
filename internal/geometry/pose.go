package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Pose is the absolute position and orientation of a body on the pitch.
// Heading is the body direction; Neck is the head angle relative to it.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Neck    float64 `json:"neck"`
}

// Point returns the pose position.
func (p Pose) Point() Vec {
	return Vec{X: p.X, Y: p.Y}
}

// Face returns the absolute direction the head is facing.
func (p Pose) Face() float64 {
	return NormalizeDeg(p.Heading + p.Neck)
}

// DistanceTo returns the distance from the pose to a point.
func (p Pose) DistanceTo(q Vec) float64 {
	return Distance(p.Point(), q)
}

// BearingTo returns the direction to q relative to the body heading.
func (p Pose) BearingTo(q Vec) float64 {
	return NormalizeDeg(Direction(p.Point(), q) - p.Heading)
}

// Mirrored returns the pose as seen from the other half of the pitch.
func (p Pose) Mirrored() Pose {
	return Pose{X: -p.X, Y: -p.Y, Heading: NormalizeDeg(p.Heading + 180), Neck: p.Neck}
}

// Advance returns the pose moved forward by speed along its heading after
// turning by turn degrees.
func (p Pose) Advance(speed, turn float64) Pose {
	p.Heading = NormalizeDeg(p.Heading + turn)
	pos := r2.Add(p.Point(), Polar(speed, p.Heading))
	p.X, p.Y = pos.X, pos.Y
	return p
}
