// Package astro implements the Lunar Return chart core: the return
// locator, chart angle calculation, planetary snapshots, and the
// elemental/modal scoring model.
package astro

import "math"

// NormalizeDeg wraps an angle into [0, 360).
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AngularDistance is the shortest-path separation of two longitudes in
// degrees, always in [0, 180].
func AngularDistance(a, b float64) float64 {
	d := math.Abs(NormalizeDeg(a) - NormalizeDeg(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// SignedDelta is the shortest-path motion from one longitude to
// another in degrees, in (-180, 180]. Negative means apparent
// backward motion.
func SignedDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}
