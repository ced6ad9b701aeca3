package mcp

import (
	"context"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestToolsListAndInvoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, cities, forecasts := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(tools.Tools) < 2 {
		t.Fatalf("expected at least 2 tools, got %d", len(tools.Tools))
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "geocode_city",
		Arguments: map[string]any{"city": "Moscow"},
	})
	if err != nil {
		t.Fatalf("geocode tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if cities.lastCity != "Moscow" {
		t.Fatalf("expected resolved city Moscow, got %s", cities.lastCity)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "compute_lunar_return",
		Arguments: map[string]any{
			"name":       "Alex",
			"birth_date": "15.01.1990",
			"birth_time": "14:30",
			"city":       "Moscow",
		},
	})
	if err != nil {
		t.Fatalf("forecast tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected forecast tool error: %+v", res.Content)
	}
	if forecasts.lastBirth.Year != 1990 || forecasts.lastBirth.Hour != 14 {
		t.Fatalf("unexpected birth data: %+v", forecasts.lastBirth)
	}
	if forecasts.lastBirth.Place.DisplayName != "Moscow, Russia" {
		t.Fatalf("place was not attached to birth data: %+v", forecasts.lastBirth.Place)
	}
}

func TestToolsValidationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv, _, _ := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer shutdown()
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "compute_lunar_return",
		Arguments: map[string]any{
			"birth_date": "1990-01-15",
			"birth_time": "14:30",
			"city":       "Moscow",
		},
	})
	if err != nil {
		t.Fatalf("unexpected protocol error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool-level validation error")
	}
}
