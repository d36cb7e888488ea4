package diary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateDiary(ctx context.Context, d types.Diary, places []types.DiaryPlaceInput) (*types.Diary, error) {
	args := m.Called(ctx, d, places)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Diary), args.Error(1)
}

func (m *MockRepository) ListDiaries(ctx context.Context, userID uuid.UUID) ([]types.Diary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Diary), args.Error(1)
}

func (m *MockRepository) GetDiary(ctx context.Context, userID, diaryID uuid.UUID) (*types.Diary, error) {
	args := m.Called(ctx, userID, diaryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Diary), args.Error(1)
}

func (m *MockRepository) ListPlaces(ctx context.Context, diaryID uuid.UUID) ([]types.DiaryPlace, error) {
	args := m.Called(ctx, diaryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.DiaryPlace), args.Error(1)
}

func (m *MockRepository) DeleteDiary(ctx context.Context, userID, diaryID uuid.UUID) error {
	return m.Called(ctx, userID, diaryID).Error(0)
}

func (m *MockRepository) SetCover(ctx context.Context, userID, diaryID uuid.UUID, url string) error {
	return m.Called(ctx, userID, diaryID, url).Error(0)
}

func (m *MockRepository) SetRegion(ctx context.Context, userID, diaryID uuid.UUID, region string) error {
	return m.Called(ctx, userID, diaryID, region).Error(0)
}

func (m *MockRepository) UpdatePositions(ctx context.Context, userID, diaryID uuid.UUID, positions []PlacePosition) error {
	return m.Called(ctx, userID, diaryID, positions).Error(0)
}

func (m *MockRepository) GetPlace(ctx context.Context, userID, placeID uuid.UUID) (*types.DiaryPlace, error) {
	args := m.Called(ctx, userID, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DiaryPlace), args.Error(1)
}

func (m *MockRepository) RecordStamp(ctx context.Context, userID, placeID uuid.UUID, stamp types.StampData) (*types.DiaryPlace, error) {
	args := m.Called(ctx, userID, placeID, stamp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DiaryPlace), args.Error(1)
}

func (m *MockRepository) ListBadges(ctx context.Context, userID uuid.UUID) ([]types.Badge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Badge), args.Error(1)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) UploadImage(ctx context.Context, key string, raw []byte) (string, error) {
	args := m.Called(ctx, key, raw)
	return args.String(0), args.Error(1)
}

var kst = time.FixedZone("KST", 9*60*60)

func setupServiceTest() (*ServiceImpl, *MockRepository, *MockImageStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockRepository)
	images := new(MockImageStore)
	return NewServiceImpl(repo, images, kst, 30, logger), repo, images
}

func date(y int, m time.Month, d int) types.Date {
	return types.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func restaurantRef(id, title string) types.PlaceRef {
	return types.PlaceRef{ID: id, Kind: types.PlaceKindRestaurant, Title: title}
}

func TestServiceImpl_Create(t *testing.T) {
	userID := uuid.New()
	diaryID := uuid.New()

	t.Run("spreads places evenly and stores 1-based rows", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		req := types.CreateDiaryRequest{
			Title:     "부산 <b>먹방</b>",
			StartDate: "2024-05-01",
			EndDate:   "2024-05-02",
			Places: []types.PlaceRef{
				restaurantRef("1", "부산 돼지국밥"),
				restaurantRef("2", "밀면"),
				restaurantRef("3", "씨앗호떡"),
				{ID: "f1", Kind: types.PlaceKindFood, Title: "대게"},
				restaurantRef("5", "어묵"),
			},
		}

		repo.On("CreateDiary", mock.Anything, mock.MatchedBy(func(d types.Diary) bool {
			return d.UserID == userID && d.Title == "부산 먹방" &&
				d.RegionName != nil && *d.RegionName == "부산"
		}), mock.MatchedBy(func(rows []types.DiaryPlaceInput) bool {
			if len(rows) != 5 {
				return false
			}
			wantDay := []int{1, 1, 1, 2, 2}
			wantOrder := []int{1, 2, 3, 1, 2}
			for i, row := range rows {
				if row.Day != wantDay[i] || row.OrderIndex != wantOrder[i] {
					return false
				}
			}
			return rows[3].FoodID != nil && rows[3].PoiID == nil
		})).Return(&types.Diary{ID: diaryID, UserID: userID}, nil).Once()

		stored := &types.Diary{ID: diaryID, UserID: userID, Title: "부산 먹방",
			StartDate: date(2024, 5, 1), EndDate: date(2024, 5, 2), RegionName: types.StringPtr("부산")}
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(stored, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{
			{ID: uuid.New(), DiaryID: diaryID, Day: 1, OrderIndex: 1, PlaceName: "부산 돼지국밥"},
			{ID: uuid.New(), DiaryID: diaryID, Day: 2, OrderIndex: 1, PlaceName: "대게"},
		}, nil).Once()

		got, err := service.Create(context.Background(), userID, req)
		require.NoError(t, err)
		require.Len(t, got.Days, 2)
		assert.Equal(t, 1, got.Days[0].Day)
		assert.Len(t, got.Days[0].Places, 1)
		assert.Len(t, got.Days[1].Places, 1)
		assert.Equal(t, "부산", got.RegionName)
		assert.False(t, got.Completed)
		repo.AssertExpectations(t)
	})

	t.Run("explicit placements are stored verbatim", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		req := types.CreateDiaryRequest{
			Title:     "강릉",
			StartDate: "2024-05-01",
			EndDate:   "2024-05-03",
			Placements: []types.Placement{
				{DayIndex: 2, OrderIndex: 1, Place: restaurantRef("a", "강릉 순두부")},
				{DayIndex: 0, OrderIndex: 3, Place: restaurantRef("b", "커피거리")},
			},
		}
		repo.On("CreateDiary", mock.Anything, mock.Anything, mock.MatchedBy(func(rows []types.DiaryPlaceInput) bool {
			return len(rows) == 2 && rows[0].Day == 3 && rows[0].OrderIndex == 1 &&
				rows[1].Day == 1 && rows[1].OrderIndex == 3
		})).Return(&types.Diary{ID: diaryID}, nil).Once()
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(&types.Diary{ID: diaryID,
			StartDate: date(2024, 5, 1), EndDate: date(2024, 5, 3)}, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{}, nil).Once()

		got, err := service.Create(context.Background(), userID, req)
		require.NoError(t, err)
		assert.Len(t, got.Days, 3)
		repo.AssertExpectations(t)
	})

	t.Run("validation failures never reach the store", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		cases := []types.CreateDiaryRequest{
			{Title: "", StartDate: "2024-05-01", EndDate: "2024-05-02"},
			{Title: "여행", StartDate: "2024-05-03", EndDate: "2024-05-01"},
			{Title: "여행", StartDate: "yesterday", EndDate: "2024-05-01"},
			{Title: "여행", StartDate: "2024-05-01", EndDate: "2024-06-30"},
			{Title: "여행", StartDate: "2024-05-01", EndDate: "2024-05-01", Placements: []types.Placement{
				{DayIndex: 4, OrderIndex: 1, Place: restaurantRef("a", "식당")},
			}},
		}
		for _, req := range cases {
			_, err := service.Create(context.Background(), userID, req)
			assert.ErrorIs(t, err, types.ErrValidation)
		}
		repo.AssertNotCalled(t, "CreateDiary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		dbErr := errors.New("connection reset")
		repo.On("CreateDiary", mock.Anything, mock.Anything, mock.Anything).Return(nil, dbErr).Once()

		_, err := service.Create(context.Background(), userID, types.CreateDiaryRequest{
			Title: "여행", StartDate: "2024-05-01", EndDate: "2024-05-01",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create diary")
	})
}

func stamped(id, diaryID uuid.UUID, name string, day, order int) types.DiaryPlace {
	return types.DiaryPlace{ID: id, DiaryID: diaryID, Day: day, OrderIndex: order, PlaceName: name,
		Visited: true, StampData: &types.StampData{ImageURL: "https://cdn/x.jpg", Title: name}}
}

func TestServiceImpl_RecordStamp(t *testing.T) {
	userID := uuid.New()
	diaryID := uuid.New()
	placeID := uuid.New()
	otherID := uuid.New()

	pending := types.DiaryPlace{ID: placeID, DiaryID: diaryID, Day: 1, OrderIndex: 2, PlaceName: "춘천 닭갈비"}

	t.Run("last stamp earns the badge", func(t *testing.T) {
		service, repo, images := setupServiceTest()
		photo := []byte("jpeg bytes")

		repo.On("GetPlace", mock.Anything, userID, placeID).Return(&pending, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{
			stamped(otherID, diaryID, "막국수", 1, 1),
			pending,
		}, nil).Once()
		images.On("UploadImage", mock.Anything, mock.MatchedBy(func(key string) bool {
			return len(key) > 0 && key[:len(userID.String())] == userID.String()
		}), photo).Return("https://cdn/stamp.jpg", nil).Once()

		want := types.StampData{ImageURL: "https://cdn/stamp.jpg", Title: "닭갈비 최고", Description: "맛있다"}
		updated := pending
		updated.Visited = true
		updated.StampData = &want
		repo.On("RecordStamp", mock.Anything, userID, placeID, want).Return(&updated, nil).Once()
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(&types.Diary{ID: diaryID, UserID: userID}, nil).Once()
		repo.On("SetRegion", mock.Anything, userID, diaryID, "강원도").Return(nil).Once()

		res, err := service.RecordStamp(context.Background(), userID, placeID, types.StampInput{
			Title:       "<i>닭갈비 최고</i>",
			Description: "맛있다",
			Photo:       photo,
		})
		require.NoError(t, err)
		assert.True(t, res.BadgeEarned)
		require.NotNil(t, res.RegionName)
		assert.Equal(t, "강원도", *res.RegionName)
		assert.True(t, res.Place.Stamped())
		repo.AssertExpectations(t)
		images.AssertExpectations(t)
	})

	t.Run("badge keeps the region stored at creation", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		unnamed := types.DiaryPlace{ID: placeID, DiaryID: diaryID, Day: 1, OrderIndex: 2, PlaceName: "할매 국밥",
			StampData: &types.StampData{ImageURL: "https://cdn/old.jpg"}}
		repo.On("GetPlace", mock.Anything, userID, placeID).Return(&unnamed, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{
			stamped(otherID, diaryID, "원조 물회", 1, 1),
			unnamed,
		}, nil).Once()

		want := types.StampData{ImageURL: "https://cdn/old.jpg", Title: "할매 국밥"}
		done := unnamed
		done.Visited = true
		done.StampData = &want
		repo.On("RecordStamp", mock.Anything, userID, placeID, want).Return(&done, nil).Once()
		stored := "경상북도"
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(&types.Diary{ID: diaryID, UserID: userID, RegionName: &stored}, nil).Once()

		res, err := service.RecordStamp(context.Background(), userID, placeID, types.StampInput{})
		require.NoError(t, err)
		assert.True(t, res.BadgeEarned)
		require.NotNil(t, res.RegionName)
		assert.Equal(t, "경상북도", *res.RegionName)
		repo.AssertNotCalled(t, "SetRegion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("restamp without photo keeps the old image", func(t *testing.T) {
		service, repo, images := setupServiceTest()
		done := stamped(placeID, diaryID, "춘천 닭갈비", 1, 2)

		repo.On("GetPlace", mock.Anything, userID, placeID).Return(&done, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{done}, nil).Once()
		want := types.StampData{ImageURL: "https://cdn/x.jpg", Title: "춘천 닭갈비", Description: "두 번째"}
		repo.On("RecordStamp", mock.Anything, userID, placeID, want).Return(&done, nil).Once()

		res, err := service.RecordStamp(context.Background(), userID, placeID, types.StampInput{Description: "두 번째"})
		require.NoError(t, err)
		assert.False(t, res.BadgeEarned, "diary was already complete")
		images.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SetRegion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("upload failure stops the stamp", func(t *testing.T) {
		service, repo, images := setupServiceTest()
		repo.On("GetPlace", mock.Anything, userID, placeID).Return(&pending, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{pending}, nil).Once()
		images.On("UploadImage", mock.Anything, mock.Anything, mock.Anything).Return("", types.ErrUpstream).Once()

		_, err := service.RecordStamp(context.Background(), userID, placeID, types.StampInput{Photo: []byte("x")})
		assert.ErrorIs(t, err, types.ErrUpstream)
		repo.AssertNotCalled(t, "RecordStamp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown place", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		repo.On("GetPlace", mock.Anything, userID, placeID).Return(nil, types.ErrNotFound).Once()

		_, err := service.RecordStamp(context.Background(), userID, placeID, types.StampInput{})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestServiceImpl_MovePlace(t *testing.T) {
	userID := uuid.New()
	diaryID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	diary := &types.Diary{ID: diaryID, UserID: userID, StartDate: date(2024, 5, 1), EndDate: date(2024, 5, 2)}
	places := []types.DiaryPlace{
		{ID: a, DiaryID: diaryID, Day: 1, OrderIndex: 1, PlaceName: "a"},
		{ID: b, DiaryID: diaryID, Day: 1, OrderIndex: 2, PlaceName: "b"},
		{ID: c, DiaryID: diaryID, Day: 2, OrderIndex: 1, PlaceName: "c"},
	}

	t.Run("persists only rows whose slot changed", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(diary, nil).Twice()
		repo.On("ListPlaces", mock.Anything, diaryID).Return(places, nil).Once()
		repo.On("UpdatePositions", mock.Anything, userID, diaryID, []PlacePosition{
			{PlaceID: b, Day: 1, OrderIndex: 1},
			{PlaceID: a, Day: 2, OrderIndex: 2},
		}).Return(nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{
			{ID: b, Day: 1, OrderIndex: 1},
			{ID: c, Day: 2, OrderIndex: 1},
			{ID: a, Day: 2, OrderIndex: 2},
		}, nil).Once()

		got, changed, err := service.MovePlace(context.Background(), userID, diaryID,
			types.Move{SourceDay: 0, SourceIndex: 0, DestDay: 1, DestIndex: 5})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Len(t, got.Days[1].Places, 2)
		repo.AssertExpectations(t)
	})

	t.Run("no-op move writes nothing", func(t *testing.T) {
		service, repo, _ := setupServiceTest()
		repo.On("GetDiary", mock.Anything, userID, diaryID).Return(diary, nil).Once()
		repo.On("ListPlaces", mock.Anything, diaryID).Return(places, nil).Once()

		_, changed, err := service.MovePlace(context.Background(), userID, diaryID,
			types.Move{SourceDay: 0, SourceIndex: 1, DestDay: 0, DestIndex: 1})
		require.NoError(t, err)
		assert.False(t, changed)
		repo.AssertNotCalled(t, "UpdatePositions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_SetCover(t *testing.T) {
	service, repo, _ := setupServiceTest()
	userID, diaryID := uuid.New(), uuid.New()

	err := service.SetCover(context.Background(), userID, diaryID, "javascript:alert(1)")
	assert.ErrorIs(t, err, types.ErrValidation)

	repo.On("SetCover", mock.Anything, userID, diaryID, "https://cdn/cover.jpg").Return(nil).Once()
	require.NoError(t, service.SetCover(context.Background(), userID, diaryID, " https://cdn/cover.jpg "))
	repo.AssertExpectations(t)
}

func TestServiceImpl_Get_GroupsByDay(t *testing.T) {
	service, repo, _ := setupServiceTest()
	userID, diaryID := uuid.New(), uuid.New()
	repo.On("GetDiary", mock.Anything, userID, diaryID).Return(&types.Diary{ID: diaryID,
		StartDate: date(2024, 5, 1), EndDate: date(2024, 5, 3)}, nil).Once()
	repo.On("ListPlaces", mock.Anything, diaryID).Return([]types.DiaryPlace{
		stamped(uuid.New(), diaryID, "제주 흑돼지 식당", 1, 1),
		stamped(uuid.New(), diaryID, "고기국수", 3, 1),
	}, nil).Once()

	got, err := service.Get(context.Background(), userID, diaryID)
	require.NoError(t, err)
	require.Len(t, got.Days, 3)
	assert.Len(t, got.Days[0].Places, 1)
	assert.Empty(t, got.Days[1].Places)
	assert.Len(t, got.Days[2].Places, 1)
	assert.True(t, got.Completed)
	assert.Equal(t, "제주", got.RegionName)
}
