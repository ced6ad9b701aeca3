package mcp

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"astrowheel/internal/domain"
)

const (
	birthDateLayout = "02.01.2006"
	birthTimeLayout = "15:04"
	maxNameLen      = 64
)

type geocodeCityInput struct {
	City string `json:"city" jsonschema:"city name to resolve (e.g. Moscow, London)"`
}

type geocodeCityOutput struct {
	Place domain.GeoPlace `json:"place"`
}

type forecastComputeInput struct {
	Name      string `json:"name,omitempty" jsonschema:"optional name of the person"`
	BirthDate string `json:"birth_date" jsonschema:"birth date as DD.MM.YYYY"`
	BirthTime string `json:"birth_time" jsonschema:"local birth time as HH:MM"`
	City      string `json:"city" jsonschema:"birth city name"`
}

type forecastComputeOutput struct {
	Forecast domain.Forecast `json:"forecast"`
	ChartURL string          `json:"chart_url,omitempty"`
}

func normalizeCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city is required")
	}
	return city, nil
}

func normalizeBirthInput(in forecastComputeInput) (domain.BirthData, error) {
	date, err := time.Parse(birthDateLayout, strings.TrimSpace(in.BirthDate))
	if err != nil {
		return domain.BirthData{}, fmt.Errorf("birth_date must be DD.MM.YYYY")
	}
	clock, err := time.Parse(birthTimeLayout, strings.TrimSpace(in.BirthTime))
	if err != nil {
		return domain.BirthData{}, fmt.Errorf("birth_time must be HH:MM")
	}

	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}

	return domain.BirthData{
		Name:   name,
		Year:   date.Year(),
		Month:  date.Month(),
		Day:    date.Day(),
		Hour:   clock.Hour(),
		Minute: clock.Minute(),
	}, nil
}
