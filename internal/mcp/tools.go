package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, cities CityResolver, forecasts ForecastComputer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "geocode_city",
		Description: "Resolve a city name into coordinates and an estimated UTC offset",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in geocodeCityInput) (*mcp.CallToolResult, geocodeCityOutput, error) {
		if cities == nil {
			return nil, geocodeCityOutput{}, fmt.Errorf("geocoder unavailable")
		}
		city, err := normalizeCity(in.City)
		if err != nil {
			return nil, geocodeCityOutput{}, err
		}
		place, err := cities.ResolveCity(ctx, city)
		if err != nil {
			return nil, geocodeCityOutput{}, err
		}
		return nil, geocodeCityOutput{Place: place}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compute_lunar_return",
		Description: "Find the current Lunar Return cycle for the given birth data and return the full chart state",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in forecastComputeInput) (*mcp.CallToolResult, forecastComputeOutput, error) {
		if cities == nil || forecasts == nil {
			return nil, forecastComputeOutput{}, fmt.Errorf("forecast service unavailable")
		}
		city, err := normalizeCity(in.City)
		if err != nil {
			return nil, forecastComputeOutput{}, err
		}
		birth, err := normalizeBirthInput(in)
		if err != nil {
			return nil, forecastComputeOutput{}, err
		}

		place, err := cities.ResolveCity(ctx, city)
		if err != nil {
			return nil, forecastComputeOutput{}, err
		}
		birth.Place = place

		forecast, _, err := forecasts.Compute(ctx, birth)
		if err != nil {
			return nil, forecastComputeOutput{}, err
		}

		out := forecastComputeOutput{Forecast: forecast}
		if forecast.ChartKey != "" {
			out.ChartURL = "/api/forecast/chart/" + forecast.ChartKey
		}
		return nil, out, nil
	})
}
