package observe

import (
	"fmt"
	"math"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// minError is used when quantization yields an empty interval.
const minError = 0.1

// Landmark is a single flag or goal sighting. It is immutable once built.
type Landmark struct {
	Name         string
	Distance     float64
	Direction    float64
	MinDistance  float64
	MaxDistance  float64
	MinDirection float64
	MaxDirection float64
	Position     geometry.Vec // known field coordinate
}

// NewLandmark builds a landmark from a seen flag or goal. Abbreviated
// (close) flags and names missing from the field table are rejected.
func NewLandmark(obj rcss.SeenObject, params rcss.ServerParams, side rcss.Side) (Landmark, error) {
	if obj.Kind != rcss.ObjectFlag && obj.Kind != rcss.ObjectGoal {
		return Landmark{}, fmt.Errorf("object %q is not a landmark", obj.Name)
	}
	if obj.Close {
		return Landmark{}, fmt.Errorf("unidentified landmark %q", obj.Name)
	}
	if len(obj.Values) < 2 {
		return Landmark{}, fmt.Errorf("landmark %q without distance", obj.Name)
	}
	pos, ok := FieldPosition(obj.Name, side)
	if !ok {
		return Landmark{}, fmt.Errorf("unknown landmark %q", obj.Name)
	}
	l := Landmark{
		Name:      obj.Name,
		Distance:  obj.Values[0],
		Direction: obj.Values[1],
		Position:  pos,
	}
	l.MinDistance, l.MaxDistance = quantizedRange(l.Distance, params.QuantizeStepL)
	l.MinDirection, l.MaxDirection = quantizedRange(l.Direction, params.QuantizeStepL)
	return l, nil
}

// quantizedRange returns the interval of true values the server could have
// rounded to v. The server quantizes on a logarithmic scale, so the
// interval widens with the magnitude of v.
func quantizedRange(v, step float64) (min, max float64) {
	switch {
	case v > 0.1:
		return math.Exp(math.Log(v-0.1) - step), v
	case v < -0.1:
		return v, -math.Exp(math.Log(-v-0.1) - step)
	default:
		return v, v
	}
}

// DistanceError is half the width of the distance interval.
func (l Landmark) DistanceError() float64 {
	return halfWidth(l.MinDistance, l.MaxDistance)
}

// DirectionError is half the width of the bearing interval.
func (l Landmark) DirectionError() float64 {
	return halfWidth(l.MinDirection, l.MaxDirection)
}

// MidDistance is the centre of the distance interval.
func (l Landmark) MidDistance() float64 {
	return (l.MinDistance + l.MaxDistance) / 2
}

// MidDirection is the centre of the bearing interval.
func (l Landmark) MidDirection() float64 {
	return (l.MinDirection + l.MaxDirection) / 2
}

func halfWidth(min, max float64) float64 {
	e := (max - min) / 2
	if e == 0 {
		return minError
	}
	return e
}
