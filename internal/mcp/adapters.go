package mcp

import (
	"context"

	"astrowheel/internal/domain"
)

// CityResolver exposes geocoding lookups.
type CityResolver interface {
	ResolveCity(ctx context.Context, city string) (domain.GeoPlace, error)
}

// ForecastComputer computes Lunar Return forecasts from birth data.
type ForecastComputer interface {
	Compute(ctx context.Context, birth domain.BirthData) (domain.Forecast, *domain.ChartImageData, error)
}
