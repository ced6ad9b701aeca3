package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"astrowheel/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type signInfo struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	Element  domain.Element  `json:"element"`
	Modality domain.Modality `json:"modality"`
}

type bodyInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Weight int    `json:"weight"`
}

func registerResources(server *mcp.Server, cities CityResolver) {
	server.AddResource(&mcp.Resource{
		URI:         "astro://signs",
		Name:        "zodiac-signs",
		Description: "The twelve zodiac signs with their element and modality",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		signs := make([]signInfo, 0, 12)
		for s := domain.Aries; s <= domain.Pisces; s++ {
			t := domain.SignTraits[s]
			signs = append(signs, signInfo{
				Name:     s.String(),
				Symbol:   s.Symbol(),
				Element:  t.Element,
				Modality: t.Modality,
			})
		}
		return jsonResource(req.Params.URI, signs)
	})

	server.AddResource(&mcp.Resource{
		URI:         "astro://bodies",
		Name:        "chart-bodies",
		Description: "Chart bodies with their scoring weights",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		bodies := make([]bodyInfo, 0, len(domain.ChartBodies))
		for _, b := range domain.ChartBodies {
			bodies = append(bodies, bodyInfo{
				Name:   string(b),
				Symbol: b.Symbol(),
				Weight: domain.BodyWeights[b],
			})
		}
		return jsonResource(req.Params.URI, bodies)
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "geocode://city/{name}",
		Name:        "geocode-city",
		Description: "Coordinates and estimated UTC offset for a populated place",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if cities == nil {
			return nil, fmt.Errorf("geocoder unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "geocode" || parsed.Host != "city" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		city, err := normalizeCity(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}
		place, err := cities.ResolveCity(ctx, city)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, geocodeCityOutput{Place: place})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
