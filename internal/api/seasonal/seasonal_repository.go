package seasonal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/harunekki-api/app/db"
	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Filter narrows the catalogue. Nil fields do not filter.
type Filter struct {
	RegionCode *int
	Month      *int
}

type Repository interface {
	ListFoods(ctx context.Context, f Filter) ([]types.SeasonalFood, error)
	GetFood(ctx context.Context, id uuid.UUID) (*types.SeasonalFood, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

// Foods without their own picture borrow the first cached tourism image whose title names them.
const foodSelect = `
	SELECT sf.id, sf.name, sf.region_code, sf.months, sf.aliases, sf.description,
	       coalesce(sf.image_url, thumb.firstimage), coalesce(lc.cnt, 0)
	FROM seasonal_foods sf
	LEFT JOIN LATERAL (
		SELECT t.firstimage FROM tour_pois t
		WHERE coalesce(t.firstimage, '') <> '' AND t.title LIKE '%' || sf.name || '%'
		LIMIT 1
	) thumb ON true
	LEFT JOIN (
		SELECT food_id, count(*) AS cnt FROM food_likes GROUP BY food_id
	) lc ON lc.food_id = sf.id::text`

func scanFood(row pgx.Row) (types.SeasonalFood, error) {
	var f types.SeasonalFood
	err := row.Scan(&f.ID, &f.Name, &f.RegionCode, &f.Months, &f.Aliases, &f.Description, &f.ImageURL, &f.LikeCount)
	return f, err
}

func (r *RepositoryImpl) failed(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *RepositoryImpl) ListFoods(ctx context.Context, f Filter) ([]types.SeasonalFood, error) {
	ctx, span := otel.Tracer("SeasonalRepository").Start(ctx, "ListFoods", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "seasonal_foods"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, foodSelect+`
		WHERE ($1::int IS NULL OR sf.region_code = $1)
		  AND ($2::int IS NULL OR $2 = ANY(sf.months))
		ORDER BY sf.name`, f.RegionCode, f.Month)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to query seasonal foods", err)
	}
	defer rows.Close()

	foods := []types.SeasonalFood{}
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, r.failed(ctx, span, "failed to scan seasonal food", err)
		}
		foods = append(foods, food)
	}
	if err := rows.Err(); err != nil {
		return nil, r.failed(ctx, span, "failed to iterate seasonal foods", err)
	}
	span.SetAttributes(attribute.Int("rows", len(foods)))
	span.SetStatus(codes.Ok, "Listed")
	return foods, nil
}

func (r *RepositoryImpl) GetFood(ctx context.Context, id uuid.UUID) (*types.SeasonalFood, error) {
	ctx, span := otel.Tracer("SeasonalRepository").Start(ctx, "GetFood", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "seasonal_foods"),
	))
	defer span.End()

	food, err := scanFood(r.pgpool.QueryRow(ctx, foodSelect+` WHERE sf.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Not found")
			return nil, fmt.Errorf("seasonal food %s: %w", id, types.ErrNotFound)
		}
		return nil, r.failed(ctx, span, "failed to read seasonal food", err)
	}
	span.SetStatus(codes.Ok, "Fetched")
	return &food, nil
}
