package observe

import (
	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Pitch half extents in metres.
const (
	HalfLength = 52.5
	HalfWidth  = 34.0
)

// field maps every flag and goal name to its coordinate as seen by a team
// playing on the left side.
var field = map[string]geometry.Vec{
	"f t 0": {X: 0, Y: -39}, "f b 0": {X: 0, Y: 39},
	"f r 0": {X: 57.5, Y: 0}, "f l 0": {X: -57.5, Y: 0},
	"f c": {X: 0, Y: 0}, "f c t": {X: 0, Y: -34}, "f c b": {X: 0, Y: 34},
	"f l t": {X: -52.5, Y: -34}, "f l b": {X: -52.5, Y: 34},
	"f r t": {X: 52.5, Y: -34}, "f r b": {X: 52.5, Y: 34},
	"f g l t": {X: -52.5, Y: -7.01}, "f g l b": {X: -52.5, Y: 7.01},
	"f g r t": {X: 52.5, Y: -7.01}, "f g r b": {X: 52.5, Y: 7.01},
	"f p l t": {X: -36, Y: -20.16}, "f p l c": {X: -36, Y: 0}, "f p l b": {X: -36, Y: 20.16},
	"f p r t": {X: 36, Y: -20.16}, "f p r c": {X: 36, Y: 0}, "f p r b": {X: 36, Y: 20.16},
	"g l": {X: -52.5, Y: 0}, "g r": {X: 52.5, Y: 0},

	"f t l 50": {X: -50, Y: -39}, "f t l 40": {X: -40, Y: -39}, "f t l 30": {X: -30, Y: -39},
	"f t l 20": {X: -20, Y: -39}, "f t l 10": {X: -10, Y: -39},
	"f t r 10": {X: 10, Y: -39}, "f t r 20": {X: 20, Y: -39}, "f t r 30": {X: 30, Y: -39},
	"f t r 40": {X: 40, Y: -39}, "f t r 50": {X: 50, Y: -39},
	"f b l 50": {X: -50, Y: 39}, "f b l 40": {X: -40, Y: 39}, "f b l 30": {X: -30, Y: 39},
	"f b l 20": {X: -20, Y: 39}, "f b l 10": {X: -10, Y: 39},
	"f b r 10": {X: 10, Y: 39}, "f b r 20": {X: 20, Y: 39}, "f b r 30": {X: 30, Y: 39},
	"f b r 40": {X: 40, Y: 39}, "f b r 50": {X: 50, Y: 39},
	"f l t 30": {X: -57.5, Y: -30}, "f l t 20": {X: -57.5, Y: -20}, "f l t 10": {X: -57.5, Y: -10},
	"f l b 10": {X: -57.5, Y: 10}, "f l b 20": {X: -57.5, Y: 20}, "f l b 30": {X: -57.5, Y: 30},
	"f r t 30": {X: 57.5, Y: -30}, "f r t 20": {X: 57.5, Y: -20}, "f r t 10": {X: 57.5, Y: -10},
	"f r b 10": {X: 57.5, Y: 10}, "f r b 20": {X: 57.5, Y: 20}, "f r b 30": {X: 57.5, Y: 30},
}

// FieldPosition returns the absolute coordinate of a named flag or goal in
// the frame of a team playing on side. Teams on the right see the pitch
// rotated by 180 degrees.
func FieldPosition(name string, side rcss.Side) (geometry.Vec, bool) {
	p, ok := field[name]
	if !ok {
		return geometry.Vec{}, false
	}
	if side == rcss.SideRight {
		p = geometry.Vec{X: -p.X, Y: -p.Y}
	}
	return p, true
}

// FieldSize returns the number of known landmarks.
func FieldSize() int { return len(field) }
