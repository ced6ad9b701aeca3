package ephemeris

import (
	"fmt"
	"math"
	"time"

	"astrowheel/internal/domain"
)

// Analytic is a self-contained low-precision ephemeris: a truncated
// lunar longitude series, Keplerian mean elements for the planets, and
// GMST-based sidereal time. Longitudes are geocentric; the observer is
// ignored for body positions and only sets the sidereal meridian.
// Typical error is a few hundredths of a degree for the Moon and well
// under a degree for the planets over 1900-2100, which is adequate for
// 30-degree sign segments and the return-matching tolerance.
type Analytic struct{}

func NewAnalytic() *Analytic {
	return &Analytic{}
}

const degPerRad = 180.0 / math.Pi

func (a *Analytic) Longitude(body domain.Body, t time.Time, _ Observer) (float64, error) {
	T := julianCenturies(julianDay(t))

	switch body {
	case domain.BodyMoon:
		return moonLongitude(T), nil
	case domain.BodySun:
		ex, ey := helioPosition(elementsEarth, T)
		return normalizeDeg(math.Atan2(-ey, -ex) * degPerRad), nil
	}

	el, ok := planetElements[body]
	if !ok {
		return 0, fmt.Errorf("ephemeris: unknown body %q", body)
	}
	ex, ey := helioPosition(elementsEarth, T)
	px, py := helioPosition(el, T)
	return normalizeDeg(math.Atan2(py-ey, px-ex) * degPerRad), nil
}

func (a *Analytic) SiderealTime(t time.Time, obs Observer) float64 {
	jd := julianDay(t)
	T := julianCenturies(jd)
	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0
	return normalizeDeg(gmst + obs.LonDeg)
}

func julianDay(t time.Time) float64 {
	return float64(t.UnixMilli())/86400000.0 + 2440587.5
}

func julianCenturies(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func sinDeg(d float64) float64 { return math.Sin(d / degPerRad) }
func cosDeg(d float64) float64 { return math.Cos(d / degPerRad) }

// moonLongitude evaluates the principal terms of the lunar longitude
// series (Meeus, Astronomical Algorithms ch. 47, truncated).
func moonLongitude(T float64) float64 {
	lp := 218.3164477 + 481267.88123421*T // mean longitude
	d := 297.8501921 + 445267.1114034*T   // mean elongation
	m := 357.5291092 + 35999.0502909*T    // sun mean anomaly
	mp := 134.9633964 + 477198.8675055*T  // moon mean anomaly
	f := 93.2720950 + 483202.0175233*T    // argument of latitude

	lon := lp +
		6.288774*sinDeg(mp) +
		1.274027*sinDeg(2*d-mp) +
		0.658314*sinDeg(2*d) +
		0.213618*sinDeg(2*mp) -
		0.185116*sinDeg(m) -
		0.114332*sinDeg(2*f) +
		0.058793*sinDeg(2*d-2*mp) +
		0.057066*sinDeg(2*d-m-mp) +
		0.053322*sinDeg(2*d+mp) +
		0.045758*sinDeg(2*d-m) -
		0.040923*sinDeg(m-mp) -
		0.034720*sinDeg(d) -
		0.030383*sinDeg(m+mp) +
		0.015327*sinDeg(2*d-2*f) -
		0.012528*sinDeg(2*f+mp)

	return normalizeDeg(lon)
}

// keplerianElements are J2000 mean orbital elements plus centennial
// rates (Standish, approximate positions valid 1800-2050).
type keplerianElements struct {
	a, da         float64 // semi-major axis, AU
	e, de         float64 // eccentricity
	i, di         float64 // inclination, deg
	l, dl         float64 // mean longitude, deg
	varpi, dvarpi float64 // longitude of perihelion, deg
	omega, domega float64 // longitude of ascending node, deg
}

var elementsEarth = keplerianElements{
	a: 1.00000261, da: 0.00000562,
	e: 0.01671123, de: -0.00004392,
	i: -0.00001531, di: -0.01294668,
	l: 100.46457166, dl: 35999.37244981,
	varpi: 102.93768193, dvarpi: 0.32327364,
	omega: 0, domega: 0,
}

var planetElements = map[domain.Body]keplerianElements{
	domain.BodyMercury: {
		a: 0.38709927, da: 0.00000037,
		e: 0.20563593, de: 0.00001906,
		i: 7.00497902, di: -0.00594749,
		l: 252.25032350, dl: 149472.67411175,
		varpi: 77.45779628, dvarpi: 0.16047689,
		omega: 48.33076593, domega: -0.12534081,
	},
	domain.BodyVenus: {
		a: 0.72333566, da: 0.00000390,
		e: 0.00677672, de: -0.00004107,
		i: 3.39467605, di: -0.00078890,
		l: 181.97909950, dl: 58517.81538729,
		varpi: 131.60246718, dvarpi: 0.00268329,
		omega: 76.67984255, domega: -0.27769418,
	},
	domain.BodyMars: {
		a: 1.52371034, da: 0.00001847,
		e: 0.09339410, de: 0.00007882,
		i: 1.84969142, di: -0.00813131,
		l: -4.55343205, dl: 19140.30268499,
		varpi: -23.94362959, dvarpi: 0.44441088,
		omega: 49.55953891, domega: -0.29257343,
	},
	domain.BodyJupiter: {
		a: 5.20288700, da: -0.00011607,
		e: 0.04838624, de: -0.00013253,
		i: 1.30439695, di: -0.00183714,
		l: 34.39644051, dl: 3034.74612775,
		varpi: 14.72847983, dvarpi: 0.21252668,
		omega: 100.47390909, domega: 0.20469106,
	},
	domain.BodySaturn: {
		a: 9.53667594, da: -0.00125060,
		e: 0.05386179, de: -0.00050991,
		i: 2.48599187, di: 0.00193609,
		l: 49.95424423, dl: 1222.49362201,
		varpi: 92.59887831, dvarpi: -0.41897216,
		omega: 113.66242448, domega: -0.28867794,
	},
	domain.BodyUranus: {
		a: 19.18916464, da: -0.00196176,
		e: 0.04725744, de: -0.00004397,
		i: 0.77263783, di: -0.00242939,
		l: 313.23810451, dl: 428.48202785,
		varpi: 170.95427630, dvarpi: 0.40805281,
		omega: 74.01692503, domega: 0.04240589,
	},
	domain.BodyNeptune: {
		a: 30.06992276, da: 0.00026291,
		e: 0.00859048, de: 0.00005105,
		i: 1.77004347, di: 0.00035372,
		l: -55.12002969, dl: 218.45945325,
		varpi: 44.96476227, dvarpi: -0.32241464,
		omega: 131.78422574, domega: -0.00508664,
	},
	domain.BodyPluto: {
		a: 39.48211675, da: -0.00031596,
		e: 0.24882730, de: 0.00005170,
		i: 17.14001206, di: 0.00004818,
		l: 238.92903833, dl: 145.20780515,
		varpi: 224.06891629, dvarpi: -0.04062942,
		omega: 110.30393684, domega: -0.01183482,
	},
}

// helioPosition returns heliocentric ecliptic x/y in AU for the epoch.
func helioPosition(el keplerianElements, T float64) (float64, float64) {
	a := el.a + el.da*T
	e := el.e + el.de*T
	i := el.i + el.di*T
	l := el.l + el.dl*T
	varpi := el.varpi + el.dvarpi*T
	omega := el.omega + el.domega*T

	m := math.Mod(l-varpi, 360)
	if m > 180 {
		m -= 360
	}
	if m < -180 {
		m += 360
	}

	ecc := solveKepler(m, e)

	xOrb := a * (cosDeg(ecc) - e)
	yOrb := a * math.Sqrt(1-e*e) * sinDeg(ecc)

	w := varpi - omega
	cw, sw := cosDeg(w), sinDeg(w)
	co, so := cosDeg(omega), sinDeg(omega)
	ci := cosDeg(i)

	x := (cw*co-sw*so*ci)*xOrb + (-sw*co-cw*so*ci)*yOrb
	y := (cw*so+sw*co*ci)*xOrb + (-sw*so+cw*co*ci)*yOrb
	return x, y
}

// solveKepler iterates the eccentric anomaly in degrees.
func solveKepler(mDeg, e float64) float64 {
	estar := degPerRad * e
	ecc := mDeg + estar*sinDeg(mDeg)
	for iter := 0; iter < 20; iter++ {
		dm := mDeg - (ecc - estar*sinDeg(ecc))
		de := dm / (1 - e*cosDeg(ecc))
		ecc += de
		if math.Abs(de) < 1e-7 {
			break
		}
	}
	return ecc
}
