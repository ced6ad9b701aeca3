package astro

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"astrowheel/internal/domain"
	"astrowheel/internal/ephemeris"
)

// linearMoonEph scripts a Moon advancing at a constant rate from a
// fixed epoch. All other bodies sit still at zero.
type linearMoonEph struct {
	epoch      time.Time
	degPerHour float64
}

func (e *linearMoonEph) Longitude(body domain.Body, t time.Time, _ ephemeris.Observer) (float64, error) {
	if body != domain.BodyMoon {
		return 0, nil
	}
	hours := t.Sub(e.epoch).Hours()
	return NormalizeDeg(hours * e.degPerHour), nil
}

func (e *linearMoonEph) SiderealTime(time.Time, ephemeris.Observer) float64 { return 0 }

// neverReturnEph yields a natal Moon longitude the running Moon never
// revisits.
type neverReturnEph struct {
	natal time.Time
}

func (e *neverReturnEph) Longitude(body domain.Body, t time.Time, _ ephemeris.Observer) (float64, error) {
	if body == domain.BodyMoon && t.Equal(e.natal) {
		return 0, nil
	}
	return 180, nil
}

func (e *neverReturnEph) SiderealTime(time.Time, ephemeris.Observer) float64 { return 0 }

func TestFindReturnLocatesCycleBounds(t *testing.T) {
	epoch := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	eph := &linearMoonEph{epoch: epoch, degPerHour: 13.2 / 24}

	// Natal Moon at the epoch is 0 deg; the Moon comes back to 0 every
	// ~27.27 days.
	now := epoch.Add(30 * 24 * time.Hour)
	engine := NewEngine(eph, func() time.Time { return now })

	cycle, err := engine.FindReturn(context.Background(), epoch, ephemeris.Observer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycle.Degraded {
		t.Fatal("cycle should not be degraded")
	}

	sinceEpoch := cycle.Start.Sub(epoch)
	if sinceEpoch < 26*24*time.Hour || sinceEpoch > 29*24*time.Hour {
		t.Fatalf("start %v after epoch, want one lunar cycle (~27.3d)", sinceEpoch)
	}

	length := cycle.End.Sub(cycle.Start)
	if length < 26*24*time.Hour || length > 29*24*time.Hour {
		t.Fatalf("cycle length %v, want ~27.3d", length)
	}

	lon, _ := eph.Longitude(domain.BodyMoon, cycle.Start, ephemeris.Observer{})
	if AngularDistance(lon, 0) >= matchToleranceDeg {
		t.Fatalf("moon at cycle start is %.4f deg from natal, want < %.4f", AngularDistance(lon, 0), matchToleranceDeg)
	}
}

func TestFindReturnFallsBackToNowWhenExhausted(t *testing.T) {
	natal := time.Date(1990, time.May, 4, 12, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

	engine := NewEngine(&neverReturnEph{natal: natal}, func() time.Time { return now })

	cycle, err := engine.FindReturn(context.Background(), natal, ephemeris.Observer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cycle.Degraded {
		t.Fatal("exhausted search must flag the cycle as degraded")
	}
	if !cycle.Start.Equal(now) {
		t.Fatalf("degraded start = %v, want current instant %v", cycle.Start, now)
	}
	want := now.Add(27*24*time.Hour + 8*time.Hour)
	if !cycle.End.Equal(want) {
		t.Fatalf("fallback end = %v, want %v", cycle.End, want)
	}
}

func TestFindReturnStopsOnCancelledContext(t *testing.T) {
	epoch := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	eph := &linearMoonEph{epoch: epoch, degPerHour: 13.2 / 24}
	engine := NewEngine(eph, func() time.Time { return epoch.Add(30 * 24 * time.Hour) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cycle, err := engine.FindReturn(ctx, epoch, ephemeris.Observer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cycle.Degraded {
		t.Fatal("cancelled search must degrade, not hang")
	}
}

// snapshotEph scripts per-body longitudes at two instants 24h apart.
type snapshotEph struct {
	at   time.Time
	lons map[domain.Body][2]float64
}

func (e *snapshotEph) Longitude(body domain.Body, t time.Time, _ ephemeris.Observer) (float64, error) {
	pair, ok := e.lons[body]
	if !ok {
		return 0, fmt.Errorf("no script for %s", body)
	}
	if t.After(e.at) {
		return pair[1], nil
	}
	return pair[0], nil
}

func (e *snapshotEph) SiderealTime(time.Time, ephemeris.Observer) float64 { return 0 }

func TestSnapshotAssignsWholeSignHousesFromAscendant(t *testing.T) {
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	lons := make(map[domain.Body][2]float64, len(domain.ChartBodies))
	for _, body := range domain.ChartBodies {
		lons[body] = [2]float64{0, 1}
	}
	// Sidereal 0 at the equator puts the ascendant in Cancer, so Cancer
	// is house 1 and Aries house 10.
	lons[domain.BodyMoon] = [2]float64{95, 108} // Cancer
	lons[domain.BodyMars] = [2]float64{10, 10.5}

	engine := NewEngine(&snapshotEph{at: at, lons: lons}, nil)
	planets, points, err := engine.Snapshot(at, ephemeris.Observer{LatDeg: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points.Ascendant != domain.Cancer {
		t.Fatalf("ascendant = %s, want Cancer", points.Ascendant)
	}
	if len(planets) != len(domain.ChartBodies) {
		t.Fatalf("got %d planets, want %d", len(planets), len(domain.ChartBodies))
	}

	byBody := make(map[domain.Body]domain.PlanetPosition, len(planets))
	for _, p := range planets {
		byBody[p.Body] = p
	}
	if moon := byBody[domain.BodyMoon]; moon.Sign != domain.Cancer || moon.House != 1 {
		t.Fatalf("moon = %s house %d, want Cancer house 1", moon.Sign, moon.House)
	}
	if mars := byBody[domain.BodyMars]; mars.Sign != domain.Aries || mars.House != 10 {
		t.Fatalf("mars = %s house %d, want Aries house 10", mars.Sign, mars.House)
	}
}

func TestSnapshotRetrogradeFromDailyMotion(t *testing.T) {
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	lons := make(map[domain.Body][2]float64, len(domain.ChartBodies))
	for _, body := range domain.ChartBodies {
		lons[body] = [2]float64{100, 101}
	}
	lons[domain.BodyMercury] = [2]float64{210, 208.5} // backing up
	lons[domain.BodySun] = [2]float64{359.5, 0.5}     // direct across the wrap

	engine := NewEngine(&snapshotEph{at: at, lons: lons}, nil)
	planets, _, err := engine.Snapshot(at, ephemeris.Observer{LatDeg: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range planets {
		switch p.Body {
		case domain.BodyMercury:
			if !p.Retrograde {
				t.Fatal("mercury moving backward must be flagged retrograde")
			}
		default:
			if p.Retrograde {
				t.Fatalf("%s moving forward flagged retrograde", p.Body)
			}
		}
	}
}

func TestSnapshotRejectsPolarObserver(t *testing.T) {
	engine := NewEngine(&linearMoonEph{epoch: time.Now(), degPerHour: 0.55}, nil)
	_, _, err := engine.Snapshot(time.Now(), ephemeris.Observer{LatDeg: 89.95})
	if err == nil {
		t.Fatal("expected latitude error")
	}
}

func TestMatchToleranceIsAboutHalfDegree(t *testing.T) {
	if math.Abs(matchToleranceDeg-0.5729578) > 1e-4 {
		t.Fatalf("tolerance = %v deg, want ~0.573 (0.01 rad)", matchToleranceDeg)
	}
}
