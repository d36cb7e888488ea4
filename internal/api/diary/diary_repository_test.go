package diary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(mockPool, logger), mockPool
}

var diaryCols = []string{"id", "user_id", "title", "start_date", "end_date", "cover_image_url", "region_name", "created_at", "updated_at"}
var placeCols = []string{"id", "diary_id", "day", "order_index", "place_name", "poi_id", "food_id", "visited", "stamp_data"}

func TestRepositoryImpl_CreateDiary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	diaryID := uuid.New()
	now := time.Now()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	region := "부산"
	poi := "2871024"
	food := "f1"

	d := types.Diary{UserID: userID, Title: "부산 먹방", StartDate: types.NewDate(start), EndDate: types.NewDate(end), RegionName: &region}
	rows := []types.DiaryPlaceInput{
		{Day: 1, OrderIndex: 1, PlaceName: "돼지국밥", PoiID: &poi},
		{Day: 2, OrderIndex: 1, PlaceName: "대게", FoodID: &food},
	}

	t.Run("writes diary and places in one transaction", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING")).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO diaries")).
			WithArgs(userID, "부산 먹방", start, end, pgxmock.AnyArg(), &region).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(diaryID, now, now))
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO diary_places")).
			WithArgs(diaryID, []int32{1, 2}, []int32{1, 1}, []string{"돼지국밥", "대게"},
				[]*string{&poi, nil}, []*string{nil, &food}).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))
		mockPool.ExpectCommit()

		created, err := repo.CreateDiary(ctx, d, rows)
		require.NoError(t, err)
		assert.Equal(t, diaryID, created.ID)
		assert.Equal(t, "부산 먹방", created.Title)
		assert.Equal(t, now, created.CreatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("place insert failure rolls back", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO diaries")).
			WithArgs(userID, "부산 먹방", start, end, pgxmock.AnyArg(), &region).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(diaryID, now, now))
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO diary_places")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("check constraint violated"))
		mockPool.ExpectRollback()

		_, err := repo.CreateDiary(ctx, d, rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert diary places")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("empty diary skips the place insert", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO diaries")).
			WithArgs(userID, "부산 먹방", start, end, pgxmock.AnyArg(), &region).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(diaryID, now, now))
		mockPool.ExpectCommit()

		_, err := repo.CreateDiary(ctx, d, nil)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_GetDiary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	diaryID := uuid.New()
	now := time.Now()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM diaries WHERE id = $1 AND user_id = $2")).
			WithArgs(diaryID, userID).
			WillReturnRows(pgxmock.NewRows(diaryCols).
				AddRow(diaryID, userID, "제주", start, start, nil, nil, now, now))

		d, err := repo.GetDiary(ctx, userID, diaryID)
		require.NoError(t, err)
		assert.Equal(t, "제주", d.Title)
		assert.Equal(t, "2024-05-01", d.StartDate.Format(types.DateLayout))
		assert.Nil(t, d.CoverImageURL)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("other user's diary is not found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM diaries WHERE id = $1 AND user_id = $2")).
			WithArgs(diaryID, userID).
			WillReturnRows(pgxmock.NewRows(diaryCols))

		_, err := repo.GetDiary(ctx, userID, diaryID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_ListPlaces(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	diaryID := uuid.New()
	poi := "123"
	stamp := &types.StampData{ImageURL: "https://cdn/a.jpg", Title: "t"}

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM diary_places p WHERE p.diary_id = $1 ORDER BY p.day, p.order_index")).
		WithArgs(diaryID).
		WillReturnRows(pgxmock.NewRows(placeCols).
			AddRow(uuid.New(), diaryID, 1, 1, "식당", &poi, nil, true, stamp).
			AddRow(uuid.New(), diaryID, 1, 2, "대게", nil, nil, false, nil))

	places, err := repo.ListPlaces(context.Background(), diaryID)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.True(t, places[0].Stamped())
	assert.Equal(t, "123", *places[0].PoiID)
	assert.False(t, places[1].Stamped())
	assert.Nil(t, places[1].StampData)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_DeleteDiary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	diaryID := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM diaries WHERE id = $1 AND user_id = $2")).
			WithArgs(diaryID, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		require.NoError(t, repo.DeleteDiary(ctx, userID, diaryID))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("nothing deleted", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM diaries")).
			WithArgs(diaryID, userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		assert.ErrorIs(t, repo.DeleteDiary(ctx, userID, diaryID), types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_SetCover(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	userID, diaryID := uuid.New(), uuid.New()

	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE diaries SET cover_image_url = $1, updated_at = now() WHERE id = $2 AND user_id = $3")).
		WithArgs("https://cdn/c.jpg", diaryID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetCover(context.Background(), userID, diaryID, "https://cdn/c.jpg"))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_UpdatePositions(t *testing.T) {
	ctx := context.Background()
	userID, diaryID, placeID := uuid.New(), uuid.New(), uuid.New()
	positions := []PlacePosition{{PlaceID: placeID, Day: 2, OrderIndex: 1}}

	t.Run("owner can move", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(diaryID, userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE diary_places SET day = $1, order_index = $2")).
			WithArgs(2, 1, placeID, diaryID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE diaries SET updated_at = now()")).
			WithArgs(diaryID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()

		require.NoError(t, repo.UpdatePositions(ctx, userID, diaryID, positions))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("stranger is refused", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(diaryID, userID).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mockPool.ExpectRollback()

		assert.ErrorIs(t, repo.UpdatePositions(ctx, userID, diaryID, positions), types.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_RecordStamp(t *testing.T) {
	ctx := context.Background()
	userID, placeID, diaryID := uuid.New(), uuid.New(), uuid.New()
	stamp := types.StampData{ImageURL: "https://cdn/s.jpg", Title: "맛집", Description: "좋아요"}

	t.Run("stamped", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE diary_places p")).
			WithArgs(stamp, placeID, userID).
			WillReturnRows(pgxmock.NewRows(placeCols).
				AddRow(placeID, diaryID, 1, 1, "맛집", nil, nil, true, &stamp))

		p, err := repo.RecordStamp(ctx, userID, placeID, stamp)
		require.NoError(t, err)
		assert.True(t, p.Stamped())
		assert.Equal(t, "좋아요", p.StampData.Description)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown place", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE diary_places p")).
			WithArgs(stamp, placeID, userID).
			WillReturnRows(pgxmock.NewRows(placeCols))

		_, err := repo.RecordStamp(ctx, userID, placeID, stamp)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryImpl_ListBadges(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	userID := uuid.New()
	region := "강원도"
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("HAVING bool_and")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "region_name", "cover_image_url", "start_date", "end_date"}).
			AddRow(uuid.New(), "춘천", &region, nil, day, day).
			AddRow(uuid.New(), "어딘가", nil, nil, day, day))

	badges, err := repo.ListBadges(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "강원도", badges[0].RegionName)
	assert.Equal(t, FallbackRegion, badges[1].RegionName)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
