package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"astrowheel/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubCityResolver struct {
	place    domain.GeoPlace
	err      error
	lastCity string
}

func (s *stubCityResolver) ResolveCity(ctx context.Context, city string) (domain.GeoPlace, error) {
	s.lastCity = city
	if s.err != nil {
		return domain.GeoPlace{}, s.err
	}
	return s.place, nil
}

type stubForecastComputer struct {
	forecast  domain.Forecast
	err       error
	lastBirth domain.BirthData
}

func (s *stubForecastComputer) Compute(ctx context.Context, birth domain.BirthData) (domain.Forecast, *domain.ChartImageData, error) {
	s.lastBirth = birth
	if s.err != nil {
		return domain.Forecast{}, nil, s.err
	}
	return s.forecast, nil, nil
}

func testServer() (*sdkmcp.Server, *stubCityResolver, *stubForecastComputer) {
	cities := &stubCityResolver{
		place: domain.GeoPlace{
			Lat: 55.7522, Lon: 37.6156,
			Timezone: "UTC+3", UTCOffsetHours: 3,
			DisplayName: "Moscow, Russia",
		},
	}
	start := time.Date(2024, time.April, 3, 14, 0, 0, 0, time.UTC)
	forecasts := &stubForecastComputer{
		forecast: domain.Forecast{
			Cycle: domain.LunarReturnCycle{Start: start, End: start.Add(27 * 24 * time.Hour)},
			Planets: []domain.PlanetPosition{
				{Body: domain.BodySun, Sign: domain.Aries, House: 1, Longitude: 12},
			},
			Points:       domain.ChartPoints{Ascendant: domain.Aries, Midheaven: domain.Capricorn},
			SignScores:   domain.NewScoreTable(),
			HouseScores:  domain.NewScoreTable(),
			SignDominant: domain.Dominant{Element: domain.ElementFire, Modality: domain.ModalityCardinal},
			ChartKey:     "deadbeefcafe0123",
		},
	}

	srv := NewServer(nil, cities, forecasts, ServerConfig{RequestTimeout: time.Second})
	return srv, cities, forecasts
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return fmt.Errorf("empty resource contents")
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
