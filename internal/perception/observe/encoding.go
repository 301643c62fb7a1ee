package observe

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
)

// Teammates share sightings over the say channel with one printable
// character per player: the relative distance in 5m bins (up to 40m) times
// nine 6 degree bearing bins covering [-27, 27).
const positionAlphabet = ")*+-./0123456789<>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

// FarCode marks a sighting outside the encodable range.
const FarCode = '#'

const (
	distanceBin  = 5.0
	directionBin = 6.0
	maxEncoded   = 40.0
	dirBins      = 9
)

// EncodeSighting packs a body's relative distance and direction into one
// character.
func EncodeSighting(b Body) byte {
	if b.Distance >= maxEncoded || b.Distance < 0 {
		return FarCode
	}
	dir := math.Max(-24, math.Min(24, b.Direction))
	distIdx := int(b.Distance / distanceBin)
	dirIdx := dirBins/2 + int(math.Round(dir/directionBin))
	return positionAlphabet[dirBins*distIdx+dirIdx]
}

// DecodeSighting recovers an approximate absolute position from a character
// produced by a teammate at pose from. The bin centre is used.
func DecodeSighting(from geometry.Pose, code byte, team Team) (Body, bool) {
	idx := strings.IndexByte(positionAlphabet, code)
	if idx < 0 {
		return Body{}, false
	}
	b := newBody()
	b.Team = team
	b.Distance = distanceBin*float64(idx/dirBins) + distanceBin/2
	b.Direction = directionBin * float64(idx%dirBins-dirBins/2)
	b.Position = r2.Add(from.Point(), geometry.Polar(b.Distance, from.Face()+b.Direction))
	b.DistanceError = distanceBin / 2
	b.Status = StatusInferred
	return b, true
}
