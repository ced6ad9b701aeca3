package astro

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"astrowheel/internal/domain"
	"astrowheel/internal/ephemeris"
)

const (
	searchLookback  = 14 * 24 * time.Hour
	searchStep      = time.Hour
	searchMaxSteps  = 42 * 24
	endSearchOffset = 25 * 24 * time.Hour
	// Mean cycle heuristic used when the end search is exhausted.
	fallbackCycleLength = 27*24*time.Hour + 8*time.Hour

	// 0.01 rad, expressed in degrees.
	matchToleranceDeg = 0.01 * 180.0 / math.Pi
)

// Engine computes Lunar Return cycles and planetary snapshots on top
// of an ephemeris provider. The clock is injectable so one invocation
// stays deterministic and tests can script it.
type Engine struct {
	eph ephemeris.Provider
	now func() time.Time
}

func NewEngine(eph ephemeris.Provider, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{eph: eph, now: now}
}

// FindReturn locates the Lunar Return cycle nearest the current
// instant for the given natal moment. The search never fails: an
// exhausted window degrades to heuristic fallback instants, flagged on
// the returned cycle. An error is only possible when the natal Moon
// longitude itself cannot be computed.
func (e *Engine) FindReturn(ctx context.Context, natalUTC time.Time, obs ephemeris.Observer) (domain.LunarReturnCycle, error) {
	natalLon, err := e.eph.Longitude(domain.BodyMoon, natalUTC.UTC(), obs)
	if err != nil {
		return domain.LunarReturnCycle{}, fmt.Errorf("natal moon longitude: %w", err)
	}

	// Captured once; the whole search is anchored to this instant.
	now := e.now().UTC()

	cycle := domain.LunarReturnCycle{}
	start, found := e.searchReturn(ctx, natalLon, now.Add(-searchLookback), obs)
	if !found {
		log.Printf("lunar return not found within %d-day window, falling back to current instant", searchMaxSteps/24)
		start = now
		cycle.Degraded = true
	}
	cycle.Start = start

	end, found := e.searchReturn(ctx, natalLon, start.Add(endSearchOffset), obs)
	if !found {
		end = start.Add(fallbackCycleLength)
	}
	cycle.End = end

	return cycle, nil
}

// searchReturn steps forward hourly from the given instant and returns
// the first step whose Moon longitude is within tolerance of the
// reference. First match wins; there is no sub-hour refinement.
func (e *Engine) searchReturn(ctx context.Context, refLonDeg float64, from time.Time, obs ephemeris.Observer) (time.Time, bool) {
	current := from
	for i := 0; i < searchMaxSteps; i++ {
		if ctx.Err() != nil {
			return time.Time{}, false
		}
		lon, err := e.eph.Longitude(domain.BodyMoon, current, obs)
		if err == nil && AngularDistance(lon, refLonDeg) < matchToleranceDeg {
			return current, true
		}
		current = current.Add(searchStep)
	}
	return time.Time{}, false
}

// Snapshot computes the ten-body chart state at an instant: chart
// points, plus sign, whole-sign house, longitude and retrograde flag
// for every body in the fixed list.
func (e *Engine) Snapshot(t time.Time, obs ephemeris.Observer) ([]domain.PlanetPosition, domain.ChartPoints, error) {
	sidereal := e.eph.SiderealTime(t, obs)
	points, err := ChartPointsAt(sidereal, obs.LatDeg)
	if err != nil {
		return nil, domain.ChartPoints{}, err
	}

	ascIdx := int(points.Ascendant)
	next := t.Add(24 * time.Hour)

	planets := make([]domain.PlanetPosition, 0, len(domain.ChartBodies))
	for _, body := range domain.ChartBodies {
		lon, err := e.eph.Longitude(body, t, obs)
		if err != nil {
			return nil, domain.ChartPoints{}, fmt.Errorf("position for %s: %w", body, err)
		}
		lonNext, err := e.eph.Longitude(body, next, obs)
		if err != nil {
			return nil, domain.ChartPoints{}, fmt.Errorf("next-day position for %s: %w", body, err)
		}

		sign := domain.SignFromLongitude(lon)
		house := domain.House(((int(sign)-ascIdx)%12+12)%12 + 1)

		planets = append(planets, domain.PlanetPosition{
			Body:      body,
			Sign:      sign,
			House:     house,
			Longitude: lon,
			// Daily finite-difference heuristic, not a velocity; can
			// misclassify near stationary points.
			Retrograde: SignedDelta(lon, lonNext) < 0,
		})
	}

	return planets, points, nil
}
