package astro

import (
	"errors"
	"fmt"
	"math"

	"astrowheel/internal/domain"
)

// ObliquityDeg is the mean obliquity of the ecliptic used for all
// chart angle computation.
const ObliquityDeg = 23.44

// Latitudes this close to a pole make tan(lat) blow up in the
// ascendant formula; refuse rather than propagate garbage.
const maxChartLatitudeDeg = 89.9

var ErrInvalidLatitude = errors.New("latitude unsupported for chart angles")

const radPerDeg = math.Pi / 180.0

// ChartPointsAt derives the Ascendant and Midheaven signs from local
// sidereal time (degrees) and observer latitude (degrees), using the
// standard quadrant spherical-astronomy formulas. Note the planetary
// house assignment elsewhere is whole-sign; only the angle-to-sign
// resolution comes from these formulas.
func ChartPointsAt(siderealDeg, latDeg float64) (domain.ChartPoints, error) {
	if math.Abs(latDeg) >= maxChartLatitudeDeg {
		return domain.ChartPoints{}, fmt.Errorf("%w: %.2f", ErrInvalidLatitude, latDeg)
	}

	ramc := siderealDeg * radPerDeg
	eps := ObliquityDeg * radPerDeg
	lat := latDeg * radPerDeg

	mc := math.Atan2(math.Sin(ramc), math.Cos(ramc)*math.Cos(eps))
	asc := math.Atan2(math.Cos(ramc), -math.Sin(ramc)*math.Cos(eps)-math.Tan(lat)*math.Sin(eps))

	mcDeg := NormalizeDeg(mc / radPerDeg)
	ascDeg := NormalizeDeg(asc / radPerDeg)

	return domain.ChartPoints{
		Ascendant: domain.SignFromLongitude(ascDeg),
		Midheaven: domain.SignFromLongitude(mcDeg),
	}, nil
}
