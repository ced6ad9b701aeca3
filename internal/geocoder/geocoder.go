// Package geocoder resolves city names to coordinates via the
// Nominatim (OpenStreetMap) search API, with a Redis cache in front.
package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"astrowheel/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound     = errors.New("place not found")
	ErrNotPopulated = errors.New("not a populated place")
)

// Accepted Nominatim addresstype values for a populated place.
var validPlaceTypes = map[string]bool{
	"city":         true,
	"town":         true,
	"village":      true,
	"municipality": true,
	"hamlet":       true,
	"suburb":       true,
	"borough":      true,
}

const minImportance = 0.4

const cacheKeyPrefix = "geocode:"

type Client struct {
	tracer     trace.Tracer
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewClient(tracer trace.Tracer, baseURL, userAgent string, cache *redis.Client, cacheTTL time.Duration) *Client {
	return &Client{
		tracer:     tracer,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	AddressType string  `json:"addresstype"`
	Class       string  `json:"class"`
	Importance  float64 `json:"importance"`
}

// Resolve looks up a city name and returns its coordinates with an
// estimated UTC offset. Results are cached by normalized name.
func (c *Client) Resolve(ctx context.Context, city string) (domain.GeoPlace, error) {
	ctx, span := c.tracer.Start(ctx, "geocoder.resolve")
	defer span.End()

	city = strings.TrimSpace(city)
	if city == "" {
		return domain.GeoPlace{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	cacheKey := cacheKeyPrefix + strings.ToLower(city)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Result(); err == nil {
			var place domain.GeoPlace
			if err := json.Unmarshal([]byte(cached), &place); err == nil {
				return place, nil
			}
		}
	}

	place, err := c.lookup(ctx, city)
	if err != nil {
		return domain.GeoPlace{}, err
	}

	if c.cache != nil {
		if payload, err := json.Marshal(place); err == nil {
			if err := c.cache.Set(ctx, cacheKey, payload, c.cacheTTL).Err(); err != nil {
				log.Printf("geocode cache write for %q failed: %v", city, err)
			}
		}
	}
	return place, nil
}

func (c *Client) lookup(ctx context.Context, city string) (domain.GeoPlace, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return domain.GeoPlace{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeoPlace{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeoPlace{}, fmt.Errorf("geocode request: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.GeoPlace{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return domain.GeoPlace{}, fmt.Errorf("%w: %s", ErrNotFound, city)
	}

	best := results[0]
	if !validPlaceTypes[best.AddressType] && best.Class != "place" && best.Importance < minImportance {
		return domain.GeoPlace{}, fmt.Errorf("%w: %s resolved to %s/%s", ErrNotPopulated, city, best.Class, best.AddressType)
	}

	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return domain.GeoPlace{}, fmt.Errorf("parse latitude %q: %w", best.Lat, err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return domain.GeoPlace{}, fmt.Errorf("parse longitude %q: %w", best.Lon, err)
	}

	offset := estimateUTCOffset(lon)
	return domain.GeoPlace{
		Lat:            lat,
		Lon:            lon,
		Timezone:       offsetName(offset),
		UTCOffsetHours: offset,
		DisplayName:    best.DisplayName,
	}, nil
}

// estimateUTCOffset derives a nominal offset from longitude alone,
// one hour per 15 degrees. Political timezone borders and DST are not
// modeled; the error is bounded by a couple of hours, which the
// hour-granular return search tolerates.
func estimateUTCOffset(lonDeg float64) float64 {
	return math.Round(lonDeg / 15)
}

func offsetName(offset float64) string {
	return fmt.Sprintf("UTC%+d", int(offset))
}
