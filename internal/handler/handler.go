package handler

import (
	"astrowheel/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer          trace.Tracer
	forecastService *service.ForecastService
}

func New(tracer trace.Tracer, forecastService *service.ForecastService) *Handler {
	return &Handler{
		tracer:          tracer,
		forecastService: forecastService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/geocode", h.Geocode)
	r.POST("/api/forecast", h.Forecast)
	r.GET("/api/forecast/chart/:key", h.ChartImage)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
