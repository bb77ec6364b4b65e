package geo

import (
	"math"

	"rq-formatter/models"
)

// Interpolate spreads deltas evenly along the segment from -> to. Sample i
// (0-based) is placed at step i+1 of len(deltas), so the last sample lands
// exactly on the step arithmetic's end point and none sits on from. Samples
// are assumed to be roughly uniform in time; the log carries no timestamps.
//
// An empty deltas slice yields no entries.
func Interpolate(from, to models.Fix, deltas []float64) []models.Entry {
	n := len(deltas)
	if n == 0 {
		return nil
	}
	latStep := (to.Latitude - from.Latitude) / float64(n)
	lonStep := (to.Longitude - from.Longitude) / float64(n)

	out := make([]models.Entry, n)
	for i, dz := range deltas {
		out[i] = models.Entry{
			Latitude:  from.Latitude + latStep*float64(i+1),
			Longitude: from.Longitude + lonStep*float64(i+1),
			DeltaZ:    dz,
		}
	}
	return out
}

// Unpositioned returns entries for deltas that have no fix pair to
// interpolate between. Their coordinates are NaN.
func Unpositioned(deltas []float64) []models.Entry {
	if len(deltas) == 0 {
		return nil
	}
	out := make([]models.Entry, len(deltas))
	for i, dz := range deltas {
		out[i] = models.Entry{Latitude: math.NaN(), Longitude: math.NaN(), DeltaZ: dz}
	}
	return out
}
