package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"astrowheel/internal/domain"
	"astrowheel/internal/geocoder"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type forecastRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date" binding:"required"`
	BirthTime string `json:"birth_time" binding:"required"`
	City      string `json:"city" binding:"required"`
}

// Geocode godoc
// @Summary      Resolve a city name
// @Description  Returns coordinates and an estimated UTC offset for a populated place
// @Tags         forecast
// @Produce      json
// @Param        city  query  string  true  "City name (e.g., Moscow, London)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/geocode [get]
func (h *Handler) Geocode(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.geocode")
	defer span.End()

	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city query parameter is required"})
		return
	}
	span.SetAttributes(attribute.String("city", city))

	place, err := h.forecastService.ResolveCity(ctx, city)
	if err != nil {
		switch {
		case errors.Is(err, geocoder.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "city not found: " + city})
		case errors.Is(err, geocoder.ErrNotPopulated):
			c.JSON(http.StatusBadRequest, gin.H{"error": city + " is not a populated place"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"place": place})
}

// Forecast godoc
// @Summary      Compute a Lunar Return forecast
// @Description  Finds the current Lunar Return cycle for the given birth data and returns the full chart state
// @Tags         forecast
// @Accept       json
// @Produce      json
// @Param        request  body  forecastRequest  true  "Birth data"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/forecast [post]
func (h *Handler) Forecast(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.forecast")
	defer span.End()

	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date, birth_time and city are required"})
		return
	}

	birthDate, err := time.Parse("02.01.2006", strings.TrimSpace(req.BirthDate))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be DD.MM.YYYY"})
		return
	}
	birthTime, err := time.Parse("15:04", strings.TrimSpace(req.BirthTime))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birth_time must be HH:MM"})
		return
	}

	place, err := h.forecastService.ResolveCity(ctx, req.City)
	if err != nil {
		switch {
		case errors.Is(err, geocoder.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "city not found: " + req.City})
		case errors.Is(err, geocoder.ErrNotPopulated):
			c.JSON(http.StatusBadRequest, gin.H{"error": req.City + " is not a populated place"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	birth := domain.BirthData{
		Name:   strings.TrimSpace(req.Name),
		Year:   birthDate.Year(),
		Month:  birthDate.Month(),
		Day:    birthDate.Day(),
		Hour:   birthTime.Hour(),
		Minute: birthTime.Minute(),
		Place:  place,
	}

	forecast, _, err := h.forecastService.Compute(ctx, birth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"forecast": forecast}
	if forecast.ChartKey != "" {
		resp["chart_url"] = "/api/forecast/chart/" + forecast.ChartKey
	}
	c.JSON(http.StatusOK, resp)
}

// ChartImage godoc
// @Summary      Get rendered wheel image
// @Description  Returns the cached PNG wheel for a chart key
// @Tags         forecast
// @Produce      png
// @Param        key  path  string  true  "Chart key"
// @Success      200  {file}  binary
// @Failure      404  {object}  map[string]string
// @Router       /api/forecast/chart/{key} [get]
func (h *Handler) ChartImage(c *gin.Context) {
	if h.forecastService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.chart-image")
	defer span.End()

	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chart key is required"})
		return
	}

	imageData, err := h.forecastService.GetChartImage(ctx, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if imageData == nil || len(imageData.Bytes) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "chart image not found"})
		return
	}

	c.Data(http.StatusOK, imageData.Ref.MimeType, imageData.Bytes)
}
