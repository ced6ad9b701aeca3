// Package service orchestrates a full forecast request: city
// resolution, return search, snapshot, scoring and wheel rendering.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"astrowheel/internal/astro"
	"astrowheel/internal/domain"
	"astrowheel/internal/ephemeris"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultForecastTimeout = 30 * time.Second
	defaultChartImageTTL   = 72 * time.Hour
)

type CityResolver interface {
	Resolve(ctx context.Context, city string) (domain.GeoPlace, error)
}

type ReturnEngine interface {
	FindReturn(ctx context.Context, natalUTC time.Time, obs ephemeris.Observer) (domain.LunarReturnCycle, error)
	Snapshot(t time.Time, obs ephemeris.Observer) ([]domain.PlanetPosition, domain.ChartPoints, error)
}

type WheelRenderer interface {
	RenderWheel(planets []domain.PlanetPosition, points domain.ChartPoints) (*domain.ChartImageData, error)
}

type ChartImageRepository interface {
	UpsertChartImageReady(ctx context.Context, chartKey string, imageBytes []byte, mimeType string, width, height int, expiresAt time.Time) (*domain.ChartImageRef, error)
	GetByChartKey(ctx context.Context, chartKey string) (*domain.ChartImageData, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type ForecastService struct {
	tracer    trace.Tracer
	geocoder  CityResolver
	engine    ReturnEngine
	renderer  WheelRenderer
	imageRepo ChartImageRepository
	timeout   time.Duration
	imageTTL  time.Duration
}

func NewForecastService(
	tracer trace.Tracer,
	geocoder CityResolver,
	engine ReturnEngine,
	renderer WheelRenderer,
	imageRepo ChartImageRepository,
) *ForecastService {
	return &ForecastService{
		tracer:    tracer,
		geocoder:  geocoder,
		engine:    engine,
		renderer:  renderer,
		imageRepo: imageRepo,
		timeout:   defaultForecastTimeout,
		imageTTL:  defaultChartImageTTL,
	}
}

func (s *ForecastService) WithTimeout(timeout time.Duration) *ForecastService {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func (s *ForecastService) WithImageTTL(ttl time.Duration) *ForecastService {
	if ttl > 0 {
		s.imageTTL = ttl
	}
	return s
}

func (s *ForecastService) ResolveCity(ctx context.Context, city string) (domain.GeoPlace, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.resolve-city")
	defer span.End()

	if s.geocoder == nil {
		return domain.GeoPlace{}, fmt.Errorf("forecast service is not fully initialized")
	}
	return s.geocoder.Resolve(ctx, city)
}

// Compute runs the full pipeline for one birth record and returns the
// forecast plus the rendered wheel. The whole computation is bounded
// by the service timeout; nothing about the caller is persisted, only
// the wheel image keyed by an anonymous chart hash.
func (s *ForecastService) Compute(ctx context.Context, birth domain.BirthData) (domain.Forecast, *domain.ChartImageData, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.compute")
	defer span.End()

	if s.engine == nil {
		return domain.Forecast{}, nil, fmt.Errorf("forecast service is not fully initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs := ephemeris.Observer{LatDeg: birth.Place.Lat, LonDeg: birth.Place.Lon}

	cycle, err := s.engine.FindReturn(ctx, birth.NatalUTC(), obs)
	if err != nil {
		return domain.Forecast{}, nil, fmt.Errorf("find lunar return: %w", err)
	}

	planets, points, err := s.engine.Snapshot(cycle.Start, obs)
	if err != nil {
		return domain.Forecast{}, nil, fmt.Errorf("snapshot at cycle start: %w", err)
	}
	_, endPoints, err := s.engine.Snapshot(cycle.End, obs)
	if err != nil {
		return domain.Forecast{}, nil, fmt.Errorf("snapshot at cycle end: %w", err)
	}

	signScores, houseScores := astro.Scores(planets)
	signDominant := astro.Dominants(signScores)
	houseDominant := astro.Dominants(houseScores)

	forecast := domain.Forecast{
		Cycle:         cycle,
		Planets:       planets,
		Points:        points,
		EndPoints:     endPoints,
		SignScores:    signScores,
		HouseScores:   houseScores,
		SignDominant:  signDominant,
		HouseDominant: houseDominant,
		ChartKey:      chartKey(planets, points),
	}
	if sign, ok := astro.SyntheticSign(signDominant); ok {
		forecast.SyntheticSign = &sign
	}
	if house, ok := astro.SyntheticHouse(houseDominant); ok {
		forecast.SyntheticHouse = &house
	}

	image := s.wheelImage(ctx, forecast)
	return forecast, image, nil
}

// wheelImage returns the rendered wheel, served from the image cache
// when a chart with the same key was already rendered. Cache failures
// only cost the caching, never the forecast.
func (s *ForecastService) wheelImage(ctx context.Context, f domain.Forecast) *domain.ChartImageData {
	if s.renderer == nil {
		return nil
	}

	if s.imageRepo != nil {
		cached, err := s.imageRepo.GetByChartKey(ctx, f.ChartKey)
		if err != nil {
			log.Printf("chart image lookup for %s failed: %v", f.ChartKey, err)
		} else if cached != nil {
			return cached
		}
	}

	rendered, err := s.renderer.RenderWheel(f.Planets, f.Points)
	if err != nil {
		log.Printf("wheel render for %s failed: %v", f.ChartKey, err)
		return nil
	}
	rendered.Ref.ChartKey = f.ChartKey

	if s.imageRepo != nil {
		expiresAt := time.Now().UTC().Add(s.imageTTL)
		if ref, err := s.imageRepo.UpsertChartImageReady(ctx, f.ChartKey, rendered.Bytes, rendered.Ref.MimeType, rendered.Ref.Width, rendered.Ref.Height, expiresAt); err != nil {
			log.Printf("chart image persist for %s failed: %v", f.ChartKey, err)
		} else if ref != nil {
			rendered.Ref = *ref
		}
	}
	return rendered
}

func (s *ForecastService) GetChartImage(ctx context.Context, chartKey string) (*domain.ChartImageData, error) {
	_, span := s.tracer.Start(ctx, "forecast-service.get-chart-image")
	defer span.End()

	if chartKey == "" {
		return nil, fmt.Errorf("empty chart key")
	}
	if s.imageRepo == nil {
		return nil, nil
	}
	return s.imageRepo.GetByChartKey(ctx, chartKey)
}

func (s *ForecastService) DeleteExpiredChartImages(ctx context.Context) (int64, error) {
	_, span := s.tracer.Start(ctx, "forecast-service.delete-expired-chart-images")
	defer span.End()

	if s.imageRepo == nil {
		return 0, nil
	}
	return s.imageRepo.DeleteExpired(ctx)
}

// chartKey hashes the chart geometry. Identical skies produce the same
// key, and no birth data enters the hash.
func chartKey(planets []domain.PlanetPosition, points domain.ChartPoints) string {
	h := sha256.New()
	fmt.Fprintf(h, "asc:%d|mc:%d", points.Ascendant, points.Midheaven)
	for _, p := range planets {
		fmt.Fprintf(h, "|%s:%.4f:%d:%t", p.Body, p.Longitude, p.House, p.Retrograde)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
