package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const defaultCleanupTick = time.Hour

type ChartImageMaintainer interface {
	DeleteExpiredChartImages(ctx context.Context) (int64, error)
}

// ChartImageMaintenance periodically purges expired wheel images so the
// cache table does not grow without bound.
type ChartImageMaintenance struct {
	tracer   trace.Tracer
	maintain ChartImageMaintainer
	tick     time.Duration
}

func NewChartImageMaintenance(tracer trace.Tracer, maintain ChartImageMaintainer) *ChartImageMaintenance {
	return &ChartImageMaintenance{
		tracer:   tracer,
		maintain: maintain,
		tick:     defaultCleanupTick,
	}
}

// WithTick overrides the cleanup interval. Non-positive values keep the default.
func (j *ChartImageMaintenance) WithTick(tick time.Duration) *ChartImageMaintenance {
	if tick > 0 {
		j.tick = tick
	}
	return j
}

func (j *ChartImageMaintenance) Start(ctx context.Context) {
	if j == nil || j.maintain == nil {
		<-ctx.Done()
		return
	}

	log.Println("Chart image maintenance starting...")
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	j.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Chart image maintenance stopped")
			return
		case <-ticker.C:
			j.runCleanup(ctx)
		}
	}
}

func (j *ChartImageMaintenance) runCleanup(ctx context.Context) {
	if j.tracer != nil {
		_, span := j.tracer.Start(ctx, "chart-image-job.cleanup")
		defer span.End()
	}
	deleted, err := j.maintain.DeleteExpiredChartImages(ctx)
	if err != nil {
		log.Printf("chart image cleanup error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("chart image cleanup removed %d row(s)", deleted)
	}
}
