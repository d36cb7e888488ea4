package likes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

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

type Repository interface {
	// SetLike stores the wanted state and returns the resulting state with a fresh count.
	SetLike(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string, liked bool) (*types.LikeState, error)
	GetState(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error)
	// Counts returns like totals for the given ids. Ids without likes are absent.
	Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error)
	ListLikedRestaurants(ctx context.Context, userID uuid.UUID) ([]types.LikedRestaurant, error)
	ListLikedFoods(ctx context.Context, userID uuid.UUID) ([]types.LikedFood, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

type likeTable struct {
	name   string
	column string
}

func tableFor(kind types.PlaceKind) (likeTable, error) {
	switch kind {
	case types.PlaceKindRestaurant:
		return likeTable{name: "restaurant_likes", column: "content_id"}, nil
	case types.PlaceKindFood:
		return likeTable{name: "food_likes", column: "food_id"}, nil
	default:
		return likeTable{}, fmt.Errorf("unknown place kind %q: %w", kind, types.ErrValidation)
	}
}

func (r *RepositoryImpl) SetLike(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string, liked bool) (*types.LikeState, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer("LikesRepository").Start(ctx, "SetLike", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", t.name),
		attribute.String("db.user.id", userID.String()),
		attribute.Bool("like.liked", liked),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "SetLike"), slog.String("kind", string(kind)), slog.String("id", id))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	if liked {
		if _, err = tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
			return nil, r.failed(ctx, span, "failed to ensure user row", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO `+t.name+` (user_id, `+t.column+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, id)
	} else {
		_, err = tx.Exec(ctx,
			`DELETE FROM `+t.name+` WHERE user_id = $1 AND `+t.column+` = $2`, userID, id)
	}
	if err != nil {
		return nil, r.failed(ctx, span, "failed to store like", err)
	}

	state := &types.LikeState{Liked: liked}
	err = tx.QueryRow(ctx, `SELECT count(*) FROM `+t.name+` WHERE `+t.column+` = $1`, id).Scan(&state.LikeCount)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to count likes", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, r.failed(ctx, span, "failed to commit like", err)
	}
	span.SetStatus(codes.Ok, "Like stored")
	return state, nil
}

func (r *RepositoryImpl) failed(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *RepositoryImpl) GetState(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer("LikesRepository").Start(ctx, "GetState", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", t.name),
	))
	defer span.End()

	var state types.LikeState
	err = r.pgpool.QueryRow(ctx, `
		SELECT count(*), coalesce(bool_or(user_id = $2), false)
		FROM `+t.name+` WHERE `+t.column+` = $1`, id, userID,
	).Scan(&state.LikeCount, &state.Liked)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to read like state", err)
	}
	span.SetStatus(codes.Ok, "State read")
	return &state, nil
}

func (r *RepositoryImpl) Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error) {
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer("LikesRepository").Start(ctx, "Counts", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", t.name),
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT `+t.column+`, count(*) FROM `+t.name+`
		WHERE `+t.column+` = ANY($1) GROUP BY `+t.column, ids)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to count likes", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, r.failed(ctx, span, "failed to scan like count", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, r.failed(ctx, span, "failed to iterate like counts", err)
	}
	span.SetStatus(codes.Ok, "Counted")
	return counts, nil
}

func (r *RepositoryImpl) ListLikedRestaurants(ctx context.Context, userID uuid.UUID) ([]types.LikedRestaurant, error) {
	ctx, span := otel.Tracer("LikesRepository").Start(ctx, "ListLikedRestaurants", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "restaurant_likes"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	// Likes whose tourism row is not cached yet still show up, titled by their id.
	rows, err := r.pgpool.Query(ctx, `
		SELECT rl.content_id, coalesce(t.title, rl.content_id), t.addr1, t.firstimage,
		       t.mapx, t.mapy, coalesce(t.areacode, '')
		FROM restaurant_likes rl
		LEFT JOIN tour_pois t ON t.contentid = rl.content_id
		WHERE rl.user_id = $1
		ORDER BY rl.created_at DESC`, userID)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to query liked restaurants", err)
	}
	defer rows.Close()

	out := []types.LikedRestaurant{}
	for rows.Next() {
		var lr types.LikedRestaurant
		var mapx, mapy *float64
		lr.Place.Kind = types.PlaceKindRestaurant
		if err := rows.Scan(&lr.Place.ID, &lr.Place.Title, &lr.Place.LocationText, &lr.Place.ImageURL,
			&mapx, &mapy, &lr.AreaCode); err != nil {
			return nil, r.failed(ctx, span, "failed to scan liked restaurant", err)
		}
		if mapx != nil && mapy != nil && (*mapx != 0 || *mapy != 0) {
			lr.Place.Coordinates = &types.Coordinates{Longitude: *mapx, Latitude: *mapy}
		}
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, r.failed(ctx, span, "failed to iterate liked restaurants", err)
	}
	span.SetStatus(codes.Ok, "Listed")
	return out, nil
}

func (r *RepositoryImpl) ListLikedFoods(ctx context.Context, userID uuid.UUID) ([]types.LikedFood, error) {
	ctx, span := otel.Tracer("LikesRepository").Start(ctx, "ListLikedFoods", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "food_likes"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT fl.food_id, sf.name, sf.image_url, sf.months, sf.region_code
		FROM food_likes fl
		JOIN seasonal_foods sf ON sf.id::text = fl.food_id
		WHERE fl.user_id = $1
		ORDER BY fl.created_at DESC`, userID)
	if err != nil {
		return nil, r.failed(ctx, span, "failed to query liked foods", err)
	}
	defer rows.Close()

	out := []types.LikedFood{}
	for rows.Next() {
		var lf types.LikedFood
		lf.Place.Kind = types.PlaceKindFood
		if err := rows.Scan(&lf.Place.ID, &lf.Place.Title, &lf.Place.ImageURL, &lf.Months, &lf.RegionCode); err != nil {
			return nil, r.failed(ctx, span, "failed to scan liked food", err)
		}
		if lf.RegionCode != nil {
			lf.Place.LocationText = types.StringPtr(types.AreaName(*lf.RegionCode))
		}
		out = append(out, lf)
	}
	if err := rows.Err(); err != nil {
		return nil, r.failed(ctx, span, "failed to iterate liked foods", err)
	}
	span.SetStatus(codes.Ok, "Listed")
	return out, nil
}

// areaCodeString keeps numeric region codes comparable with tourism area codes.
func areaCodeString(code *int) string {
	if code == nil {
		return ""
	}
	return strconv.Itoa(*code)
}
