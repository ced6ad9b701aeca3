package mcp

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNormalizeCity(t *testing.T) {
	if _, err := normalizeCity("   "); err == nil {
		t.Fatal("expected error for blank city")
	}
	city, err := normalizeCity("  Moscow ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if city != "Moscow" {
		t.Fatalf("city = %q", city)
	}
}

func TestNormalizeBirthInput(t *testing.T) {
	birth, err := normalizeBirthInput(forecastComputeInput{
		Name:      "Alex",
		BirthDate: "15.01.1990",
		BirthTime: "14:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if birth.Year != 1990 || birth.Month != time.January || birth.Day != 15 {
		t.Fatalf("date = %d-%d-%d", birth.Year, birth.Month, birth.Day)
	}
	if birth.Hour != 14 || birth.Minute != 30 {
		t.Fatalf("time = %d:%d", birth.Hour, birth.Minute)
	}

	if _, err := normalizeBirthInput(forecastComputeInput{BirthDate: "1990-01-15", BirthTime: "14:30"}); err == nil {
		t.Fatal("expected error for ISO date")
	}
	if _, err := normalizeBirthInput(forecastComputeInput{BirthDate: "15.01.1990", BirthTime: "2pm"}); err == nil {
		t.Fatal("expected error for non-24h time")
	}

	long := strings.Repeat("n", 100)
	birth, err = normalizeBirthInput(forecastComputeInput{Name: long, BirthDate: "15.01.1990", BirthTime: "14:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(birth.Name) != maxNameLen {
		t.Fatalf("name length = %d", len(birth.Name))
	}

	cyrillic := strings.Repeat("Ж", 100)
	birth, err = normalizeBirthInput(forecastComputeInput{Name: cyrillic, BirthDate: "15.01.1990", BirthTime: "14:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(birth.Name) {
		t.Fatalf("truncated name is not valid UTF-8: %q", birth.Name)
	}
	if n := utf8.RuneCountInString(birth.Name); n != maxNameLen {
		t.Fatalf("rune count = %d, want %d", n, maxNameLen)
	}
}
