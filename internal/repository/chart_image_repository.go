// Package repository holds the pgx data access layer. Only rendered
// wheel images are persisted, keyed by an anonymous chart hash; no
// user input ever reaches the database.
package repository

import (
	"context"
	"time"

	"astrowheel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ChartImageRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewChartImageRepository(pool PgxPool, tracer trace.Tracer) *ChartImageRepository {
	return &ChartImageRepository{pool: pool, tracer: tracer}
}

func (r *ChartImageRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "chart-image-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS chart_images (
    id BIGSERIAL PRIMARY KEY,
    chart_key TEXT NOT NULL UNIQUE,
    mime_type TEXT NOT NULL,
    image_bytes BYTEA NOT NULL,
    width INT NOT NULL,
    height INT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chart_images_expires_at ON chart_images (expires_at);
`)
	return err
}

func (r *ChartImageRepository) UpsertChartImageReady(
	ctx context.Context,
	chartKey string,
	imageBytes []byte,
	mimeType string,
	width, height int,
	expiresAt time.Time,
) (*domain.ChartImageRef, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.upsert-ready")
	defer span.End()

	var out domain.ChartImageRef
	err := r.pool.QueryRow(ctx, `
INSERT INTO chart_images (chart_key, mime_type, image_bytes, width, height, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chart_key) DO UPDATE SET
    mime_type = EXCLUDED.mime_type,
    image_bytes = EXCLUDED.image_bytes,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    expires_at = EXCLUDED.expires_at
RETURNING id, chart_key, mime_type, width, height, expires_at
`, chartKey, mimeType, imageBytes, width, height, expiresAt.UTC()).
		Scan(&out.ImageID, &out.ChartKey, &out.MimeType, &out.Width, &out.Height, &out.ExpiresAt)
	if err != nil {
		return nil, err
	}
	out.ExpiresAt = out.ExpiresAt.UTC()
	return &out, nil
}

func (r *ChartImageRepository) GetByChartKey(ctx context.Context, chartKey string) (*domain.ChartImageData, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.get-by-chart-key")
	defer span.End()

	var out domain.ChartImageData
	err := r.pool.QueryRow(ctx, `
SELECT id, chart_key, mime_type, width, height, expires_at, image_bytes
FROM chart_images
WHERE chart_key = $1
  AND expires_at > NOW()
`, chartKey).Scan(
		&out.Ref.ImageID,
		&out.Ref.ChartKey,
		&out.Ref.MimeType,
		&out.Ref.Width,
		&out.Ref.Height,
		&out.Ref.ExpiresAt,
		&out.Bytes,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	out.Ref.ExpiresAt = out.Ref.ExpiresAt.UTC()
	return &out, nil
}

func (r *ChartImageRepository) DeleteExpired(ctx context.Context) (int64, error) {
	_, span := r.tracer.Start(ctx, "chart-image-repo.delete-expired")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM chart_images WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
