package tour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

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

// Repository keeps a local copy of tourism content for when the API is down.
type Repository interface {
	UpsertPOIs(ctx context.Context, items []types.TourItem) error
	ListPOIs(ctx context.Context, p types.TourListParams) (*types.TourPage, error)
	GetPOI(ctx context.Context, contentID string) (*types.TourItem, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

const poiColumns = `contentid, title, coalesce(addr1, ''), coalesce(areacode, ''), coalesce(sigungucode, ''),
	coalesce(contenttypeid, ''), coalesce(firstimage, ''), coalesce(firstimage2, ''), mapx, mapy`

func (r *RepositoryImpl) failed(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%s: %w", msg, err)
}

func parseCoord(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpsertPOIs writes a page of items in one statement.
func (r *RepositoryImpl) UpsertPOIs(ctx context.Context, items []types.TourItem) error {
	if len(items) == 0 {
		return nil
	}
	ctx, span := otel.Tracer("TourRepository").Start(ctx, "UpsertPOIs", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "tour_pois"),
		attribute.Int("rows", len(items)),
	))
	defer span.End()

	n := len(items)
	ids, titles := make([]string, n), make([]string, n)
	addrs, areas, sigungus, ctypes := make([]*string, n), make([]*string, n), make([]*string, n), make([]*string, n)
	images, thumbs := make([]*string, n), make([]*string, n)
	xs, ys := make([]*float64, n), make([]*float64, n)
	for i, it := range items {
		ids[i], titles[i] = it.ContentID, it.Title
		addrs[i], areas[i], sigungus[i] = nullable(it.Addr1), nullable(it.AreaCode), nullable(it.SigunguCode)
		ctypes[i], images[i], thumbs[i] = nullable(it.ContentTypeID), nullable(it.FirstImage), nullable(it.FirstImage2)
		xs[i], ys[i] = parseCoord(it.MapX), parseCoord(it.MapY)
	}

	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO tour_pois (contentid, title, addr1, areacode, sigungucode, contenttypeid,
		                       firstimage, firstimage2, mapx, mapy, fetched_at)
		SELECT c, t, a, ar, s, ct, fi, fi2, x, y, now()
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[],
		            $7::text[], $8::text[], $9::float8[], $10::float8[])
		     AS u(c, t, a, ar, s, ct, fi, fi2, x, y)
		ON CONFLICT (contentid) DO UPDATE SET
			title = EXCLUDED.title, addr1 = EXCLUDED.addr1, areacode = EXCLUDED.areacode,
			sigungucode = EXCLUDED.sigungucode, contenttypeid = EXCLUDED.contenttypeid,
			firstimage = EXCLUDED.firstimage, firstimage2 = EXCLUDED.firstimage2,
			mapx = EXCLUDED.mapx, mapy = EXCLUDED.mapy, fetched_at = now()`,
		ids, titles, addrs, areas, sigungus, ctypes, images, thumbs, xs, ys)
	if err != nil {
		return r.failed(ctx, span, "failed to upsert tour pois", err)
	}
	span.SetStatus(codes.Ok, "Upserted")
	return nil
}

func scanPOI(row pgx.Row, extra ...any) (types.TourItem, error) {
	var it types.TourItem
	var x, y *float64
	dest := append([]any{&it.ContentID, &it.Title, &it.Addr1, &it.AreaCode, &it.SigunguCode,
		&it.ContentTypeID, &it.FirstImage, &it.FirstImage2, &x, &y}, extra...)
	if err := row.Scan(dest...); err != nil {
		return it, err
	}
	it.MapX, it.MapY = formatCoord(x), formatCoord(y)
	return it, nil
}

// ListPOIs answers a list query from the local copy with the same filters and paging.
func (r *RepositoryImpl) ListPOIs(ctx context.Context, p types.TourListParams) (*types.TourPage, error) {
	ctx, span := otel.Tracer("TourRepository").Start(ctx, "ListPOIs", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "tour_pois"),
	))
	defer span.End()

	offset := (p.Page - 1) * p.Size
	rows, err := r.pgpool.Query(ctx, `
		SELECT `+poiColumns+`, count(*) OVER ()
		FROM tour_pois
		WHERE ($1 = '' OR areacode = $1)
		  AND ($2 = '' OR sigungucode = $2)
		  AND ($3 = '' OR contenttypeid = $3)
		  AND ($4 = '' OR title ILIKE '%' || $4 || '%')
		ORDER BY fetched_at DESC, contentid
		LIMIT $5 OFFSET $6`,
		p.AreaCode, p.SigunguCode, p.ContentTypeID, p.Keyword, p.Size, offset)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to query tour pois", err)
	}
	defer rows.Close()

	page := &types.TourPage{Items: []types.TourItem{}, PageNo: p.Page, NumOfRows: p.Size}
	for rows.Next() {
		it, err := scanPOI(rows, &page.TotalCount)
		if err != nil {
			return nil, r.failed(ctx, span, "failed to scan tour poi", err)
		}
		page.Items = append(page.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, r.failed(ctx, span, "failed to iterate tour pois", err)
	}
	span.SetStatus(codes.Ok, "Listed")
	return page, nil
}

func (r *RepositoryImpl) GetPOI(ctx context.Context, contentID string) (*types.TourItem, error) {
	ctx, span := otel.Tracer("TourRepository").Start(ctx, "GetPOI", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "tour_pois"),
	))
	defer span.End()

	it, err := scanPOI(r.pgpool.QueryRow(ctx,
		`SELECT `+poiColumns+` FROM tour_pois WHERE contentid = $1`, contentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Not found")
			return nil, fmt.Errorf("content %s: %w", contentID, types.ErrNotFound)
		}
		return nil, r.failed(ctx, span, "failed to read tour poi", err)
	}
	span.SetStatus(codes.Ok, "Fetched")
	return &it, nil
}
