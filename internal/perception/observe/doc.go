// Package observe turns decoded see reports into per-cycle sightings:
// landmarks with their quantization error bounds, players and the ball in
// absolute field coordinates.
//
// Sightings are created fresh every cycle. The tracker later fills in the
// identity and tracking metadata of Body values; everything else is fixed
// at construction.
package observe
