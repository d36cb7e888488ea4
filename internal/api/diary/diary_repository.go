package diary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

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

// PlacePosition is the new 1-based slot of a saved diary place.
type PlacePosition struct {
	PlaceID    uuid.UUID
	Day        int
	OrderIndex int
}

// Repository persists diaries and their places. Every method is scoped by user id.
type Repository interface {
	// CreateDiary writes the diary row and all of its places in one transaction.
	// The user row is created on first use.
	CreateDiary(ctx context.Context, d types.Diary, places []types.DiaryPlaceInput) (*types.Diary, error)
	ListDiaries(ctx context.Context, userID uuid.UUID) ([]types.Diary, error)
	// GetDiary returns types.ErrNotFound when the diary does not exist or belongs to someone else.
	GetDiary(ctx context.Context, userID, diaryID uuid.UUID) (*types.Diary, error)
	ListPlaces(ctx context.Context, diaryID uuid.UUID) ([]types.DiaryPlace, error)
	DeleteDiary(ctx context.Context, userID, diaryID uuid.UUID) error
	SetCover(ctx context.Context, userID, diaryID uuid.UUID, url string) error
	SetRegion(ctx context.Context, userID, diaryID uuid.UUID, region string) error
	UpdatePositions(ctx context.Context, userID, diaryID uuid.UUID, positions []PlacePosition) error

	GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*types.DiaryPlace, error)
	RecordStamp(ctx context.Context, userID, placeID uuid.UUID, stamp types.StampData) (*types.DiaryPlace, error)

	// ListBadges returns the diaries whose places all carry a stamp photo.
	ListBadges(ctx context.Context, userID uuid.UUID) ([]types.Badge, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func dbSpan(ctx context.Context, name, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", table),
	}, attrs...)
	return otel.Tracer("DiaryRepository").Start(ctx, name, trace.WithAttributes(attrs...))
}

func queryFailed(ctx context.Context, span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
}

func (r *RepositoryImpl) CreateDiary(ctx context.Context, d types.Diary, places []types.DiaryPlaceInput) (*types.Diary, error) {
	ctx, span := dbSpan(ctx, "CreateDiary", "INSERT", "diaries",
		attribute.String("db.user.id", d.UserID.String()),
		attribute.Int("places.count", len(places)),
	)
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateDiary"), slog.String("userID", d.UserID.String()))

	started := time.Now()
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		queryFailed(ctx, span, "Begin", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, d.UserID); err != nil {
		queryFailed(ctx, span, "EnsureUser", err)
		return nil, fmt.Errorf("failed to ensure user row: %w", err)
	}

	created := d
	err = tx.QueryRow(ctx, `
		INSERT INTO diaries (user_id, title, start_date, end_date, cover_image_url, region_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		d.UserID, d.Title, d.StartDate.Time, d.EndDate.Time, d.CoverImageURL, d.RegionName,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		queryFailed(ctx, span, "InsertDiary", err)
		return nil, fmt.Errorf("failed to insert diary: %w", err)
	}

	if len(places) > 0 {
		days := make([]int32, len(places))
		orders := make([]int32, len(places))
		names := make([]string, len(places))
		poiIDs := make([]*string, len(places))
		foodIDs := make([]*string, len(places))
		for i, p := range places {
			days[i] = int32(p.Day)
			orders[i] = int32(p.OrderIndex)
			names[i] = p.PlaceName
			poiIDs[i] = p.PoiID
			foodIDs[i] = p.FoodID
		}
		// One statement for all rows keeps the insert a single round trip.
		_, err = tx.Exec(ctx, `
			INSERT INTO diary_places (diary_id, day, order_index, place_name, poi_id, food_id)
			SELECT $1, t.day, t.order_index, t.place_name, t.poi_id, t.food_id
			FROM unnest($2::int[], $3::int[], $4::text[], $5::text[], $6::text[])
				AS t(day, order_index, place_name, poi_id, food_id)`,
			created.ID, days, orders, names, poiIDs, foodIDs,
		)
		if err != nil {
			queryFailed(ctx, span, "InsertPlaces", err)
			return nil, fmt.Errorf("failed to insert diary places: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		queryFailed(ctx, span, "Commit", err)
		return nil, fmt.Errorf("failed to commit diary: %w", err)
	}
	metrics.Get().DbTransactionSeconds.Record(ctx, time.Since(started).Seconds())

	l.InfoContext(ctx, "Diary created", slog.String("diaryID", created.ID.String()))
	span.SetStatus(codes.Ok, "Diary created")
	return &created, nil
}

const diaryColumns = `id, user_id, title, start_date, end_date, cover_image_url, region_name, created_at, updated_at`

func scanDiary(row pgx.Row) (*types.Diary, error) {
	var d types.Diary
	var start, end time.Time
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &start, &end,
		&d.CoverImageURL, &d.RegionName, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.StartDate = types.NewDate(start)
	d.EndDate = types.NewDate(end)
	return &d, nil
}

func (r *RepositoryImpl) ListDiaries(ctx context.Context, userID uuid.UUID) ([]types.Diary, error) {
	ctx, span := dbSpan(ctx, "ListDiaries", "SELECT", "diaries", attribute.String("db.user.id", userID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT `+diaryColumns+` FROM diaries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		queryFailed(ctx, span, "ListDiaries", err)
		return nil, fmt.Errorf("failed to query diaries: %w", err)
	}
	defer rows.Close()

	diaries := []types.Diary{}
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			queryFailed(ctx, span, "ScanDiary", err)
			return nil, fmt.Errorf("failed to scan diary: %w", err)
		}
		diaries = append(diaries, *d)
	}
	if err := rows.Err(); err != nil {
		queryFailed(ctx, span, "ListDiaries", err)
		return nil, fmt.Errorf("error iterating diaries: %w", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(diaries)))
	span.SetStatus(codes.Ok, "Diaries listed")
	return diaries, nil
}

func (r *RepositoryImpl) GetDiary(ctx context.Context, userID, diaryID uuid.UUID) (*types.Diary, error) {
	ctx, span := dbSpan(ctx, "GetDiary", "SELECT", "diaries", attribute.String("db.diary.id", diaryID.String()))
	defer span.End()

	d, err := scanDiary(r.pgpool.QueryRow(ctx,
		`SELECT `+diaryColumns+` FROM diaries WHERE id = $1 AND user_id = $2`, diaryID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Diary not found")
			return nil, fmt.Errorf("diary %s: %w", diaryID, types.ErrNotFound)
		}
		queryFailed(ctx, span, "GetDiary", err)
		return nil, fmt.Errorf("failed to fetch diary: %w", err)
	}
	span.SetStatus(codes.Ok, "Diary found")
	return d, nil
}

const placeColumns = `p.id, p.diary_id, p.day, p.order_index, p.place_name, p.poi_id, p.food_id, p.visited, p.stamp_data`

func scanPlace(row pgx.Row) (*types.DiaryPlace, error) {
	var p types.DiaryPlace
	err := row.Scan(&p.ID, &p.DiaryID, &p.Day, &p.OrderIndex, &p.PlaceName,
		&p.PoiID, &p.FoodID, &p.Visited, &p.StampData)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepositoryImpl) ListPlaces(ctx context.Context, diaryID uuid.UUID) ([]types.DiaryPlace, error) {
	ctx, span := dbSpan(ctx, "ListPlaces", "SELECT", "diary_places", attribute.String("db.diary.id", diaryID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx,
		`SELECT `+placeColumns+` FROM diary_places p WHERE p.diary_id = $1 ORDER BY p.day, p.order_index`, diaryID)
	if err != nil {
		queryFailed(ctx, span, "ListPlaces", err)
		return nil, fmt.Errorf("failed to query diary places: %w", err)
	}
	defer rows.Close()

	places := []types.DiaryPlace{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			queryFailed(ctx, span, "ScanPlace", err)
			return nil, fmt.Errorf("failed to scan diary place: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		queryFailed(ctx, span, "ListPlaces", err)
		return nil, fmt.Errorf("error iterating diary places: %w", err)
	}
	span.SetStatus(codes.Ok, "Places listed")
	return places, nil
}

func (r *RepositoryImpl) DeleteDiary(ctx context.Context, userID, diaryID uuid.UUID) error {
	ctx, span := dbSpan(ctx, "DeleteDiary", "DELETE", "diaries", attribute.String("db.diary.id", diaryID.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM diaries WHERE id = $1 AND user_id = $2`, diaryID, userID)
	if err != nil {
		queryFailed(ctx, span, "DeleteDiary", err)
		return fmt.Errorf("failed to delete diary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Diary not found")
		return fmt.Errorf("diary %s: %w", diaryID, types.ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Diary deleted", slog.String("diaryID", diaryID.String()))
	span.SetStatus(codes.Ok, "Diary deleted")
	return nil
}

func (r *RepositoryImpl) updateDiaryColumn(ctx context.Context, name, column string, userID, diaryID uuid.UUID, value string) error {
	ctx, span := dbSpan(ctx, name, "UPDATE", "diaries", attribute.String("db.diary.id", diaryID.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE diaries SET `+column+` = $1, updated_at = now() WHERE id = $2 AND user_id = $3`,
		value, diaryID, userID)
	if err != nil {
		queryFailed(ctx, span, name, err)
		return fmt.Errorf("failed to update diary %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Diary not found")
		return fmt.Errorf("diary %s: %w", diaryID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Diary updated")
	return nil
}

func (r *RepositoryImpl) SetCover(ctx context.Context, userID, diaryID uuid.UUID, url string) error {
	return r.updateDiaryColumn(ctx, "SetCover", "cover_image_url", userID, diaryID, url)
}

func (r *RepositoryImpl) SetRegion(ctx context.Context, userID, diaryID uuid.UUID, region string) error {
	return r.updateDiaryColumn(ctx, "SetRegion", "region_name", userID, diaryID, region)
}

func (r *RepositoryImpl) UpdatePositions(ctx context.Context, userID, diaryID uuid.UUID, positions []PlacePosition) error {
	ctx, span := dbSpan(ctx, "UpdatePositions", "UPDATE", "diary_places",
		attribute.String("db.diary.id", diaryID.String()),
		attribute.Int("places.count", len(positions)),
	)
	defer span.End()
	l := r.logger.With(slog.String("method", "UpdatePositions"), slog.String("diaryID", diaryID.String()))

	started := time.Now()
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		queryFailed(ctx, span, "Begin", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	var owned bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM diaries WHERE id = $1 AND user_id = $2)`, diaryID, userID,
	).Scan(&owned)
	if err != nil {
		queryFailed(ctx, span, "CheckOwner", err)
		return fmt.Errorf("failed to check diary owner: %w", err)
	}
	if !owned {
		span.SetStatus(codes.Error, "Diary not found")
		return fmt.Errorf("diary %s: %w", diaryID, types.ErrNotFound)
	}

	for _, p := range positions {
		_, err = tx.Exec(ctx,
			`UPDATE diary_places SET day = $1, order_index = $2 WHERE id = $3 AND diary_id = $4`,
			p.Day, p.OrderIndex, p.PlaceID, diaryID)
		if err != nil {
			queryFailed(ctx, span, "UpdatePosition", err)
			return fmt.Errorf("failed to move diary place %s: %w", p.PlaceID, err)
		}
	}
	if _, err = tx.Exec(ctx, `UPDATE diaries SET updated_at = now() WHERE id = $1`, diaryID); err != nil {
		queryFailed(ctx, span, "TouchDiary", err)
		return fmt.Errorf("failed to touch diary: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		queryFailed(ctx, span, "Commit", err)
		return fmt.Errorf("failed to commit positions: %w", err)
	}
	metrics.Get().DbTransactionSeconds.Record(ctx, time.Since(started).Seconds())
	span.SetStatus(codes.Ok, "Positions updated")
	return nil
}

func (r *RepositoryImpl) GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*types.DiaryPlace, error) {
	ctx, span := dbSpan(ctx, "GetPlace", "SELECT", "diary_places", attribute.String("db.place.id", placeID.String()))
	defer span.End()

	p, err := scanPlace(r.pgpool.QueryRow(ctx, `
		SELECT `+placeColumns+`
		FROM diary_places p
		JOIN diaries d ON d.id = p.diary_id
		WHERE p.id = $1 AND d.user_id = $2`, placeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Place not found")
			return nil, fmt.Errorf("diary place %s: %w", placeID, types.ErrNotFound)
		}
		queryFailed(ctx, span, "GetPlace", err)
		return nil, fmt.Errorf("failed to fetch diary place: %w", err)
	}
	span.SetStatus(codes.Ok, "Place found")
	return p, nil
}

func (r *RepositoryImpl) RecordStamp(ctx context.Context, userID, placeID uuid.UUID, stamp types.StampData) (*types.DiaryPlace, error) {
	ctx, span := dbSpan(ctx, "RecordStamp", "UPDATE", "diary_places", attribute.String("db.place.id", placeID.String()))
	defer span.End()

	p, err := scanPlace(r.pgpool.QueryRow(ctx, `
		UPDATE diary_places p
		SET visited = true, stamp_data = $1
		FROM diaries d
		WHERE d.id = p.diary_id AND p.id = $2 AND d.user_id = $3
		RETURNING `+placeColumns, stamp, placeID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Place not found")
			return nil, fmt.Errorf("diary place %s: %w", placeID, types.ErrNotFound)
		}
		queryFailed(ctx, span, "RecordStamp", err)
		return nil, fmt.Errorf("failed to record stamp: %w", err)
	}
	span.SetStatus(codes.Ok, "Stamp recorded")
	return p, nil
}

func (r *RepositoryImpl) ListBadges(ctx context.Context, userID uuid.UUID) ([]types.Badge, error) {
	ctx, span := dbSpan(ctx, "ListBadges", "SELECT", "diaries", attribute.String("db.user.id", userID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT d.id, d.title, d.region_name, d.cover_image_url, d.start_date, d.end_date
		FROM diaries d
		JOIN diary_places p ON p.diary_id = d.id
		WHERE d.user_id = $1
		GROUP BY d.id
		HAVING bool_and(p.visited AND coalesce(p.stamp_data->>'image_url', '') <> '')
		ORDER BY d.end_date DESC`, userID)
	if err != nil {
		queryFailed(ctx, span, "ListBadges", err)
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := []types.Badge{}
	for rows.Next() {
		var b types.Badge
		var region *string
		var start, end time.Time
		if err := rows.Scan(&b.DiaryID, &b.Title, &region, &b.CoverImageURL, &start, &end); err != nil {
			queryFailed(ctx, span, "ScanBadge", err)
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		b.RegionName = FallbackRegion
		if region != nil && *region != "" {
			b.RegionName = *region
		}
		b.StartDate = types.NewDate(start)
		b.EndDate = types.NewDate(end)
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		queryFailed(ctx, span, "ListBadges", err)
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}
	span.SetStatus(codes.Ok, "Badges listed")
	return badges, nil
}
