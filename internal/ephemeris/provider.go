// Package ephemeris supplies geocentric ecliptic longitudes and local
// sidereal time for the fixed chart body list.
package ephemeris

import (
	"time"

	"astrowheel/internal/domain"
)

// Observer is a geographic reference point. Latitude and longitude are
// degrees, longitude positive east.
type Observer struct {
	LatDeg float64
	LonDeg float64
}

// Provider is the position source consumed by the chart core.
type Provider interface {
	// Longitude returns the ecliptic longitude of a body in degrees,
	// normalized to [0, 360).
	Longitude(body domain.Body, t time.Time, obs Observer) (float64, error)

	// SiderealTime returns the local sidereal time at the observer in
	// degrees, normalized to [0, 360).
	SiderealTime(t time.Time, obs Observer) float64
}
