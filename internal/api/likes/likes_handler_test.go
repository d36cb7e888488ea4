package likes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/api/auth"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Toggle(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error) {
	args := m.Called(ctx, userID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikeState), args.Error(1)
}

func (m *MockService) View(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error) {
	args := m.Called(ctx, userID, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikeState), args.Error(1)
}

func (m *MockService) Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error) {
	args := m.Called(ctx, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockService) Collect(ctx context.Context, userID uuid.UUID, filter types.LikedItemsFilter) (*types.LikedItemsResponse, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LikedItemsResponse), args.Error(1)
}

func setupHandlerTest() (http.Handler, *MockService) {
	svc := new(MockService)
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Get("/likes", h.ListLiked)
	r.Get("/likes/counts", h.LikeCounts)
	r.Get("/likes/{kind}/{id}", h.GetLike)
	r.Post("/likes/{kind}/{id}/toggle", h.ToggleLike)
	return r, svc
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestHandler_ToggleLike(t *testing.T) {
	userID := uuid.New()

	t.Run("toggled", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("Toggle", mock.Anything, userID, types.PlaceKindRestaurant, "2871024").
			Return(&types.LikeState{Liked: true, LikeCount: 12}, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/likes/restaurant/2871024/toggle", nil), userID))

		require.Equal(t, http.StatusOK, rec.Code)
		var state types.LikeState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
		assert.Equal(t, types.LikeState{Liked: true, LikeCount: 12}, state)
		svc.AssertExpectations(t)
	})

	t.Run("anonymous", func(t *testing.T) {
		router, svc := setupHandlerTest()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/likes/food/1/toggle", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown kind", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("Toggle", mock.Anything, userID, types.PlaceKind("hotel"), "1").Return(nil, types.ErrValidation).Once()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/likes/hotel/1/toggle", nil), userID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure hides details", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("Toggle", mock.Anything, userID, types.PlaceKindFood, "1").
			Return(nil, errors.New("pq: connection reset")).Once()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/likes/food/1/toggle", nil), userID))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}

func TestHandler_ListLiked(t *testing.T) {
	userID := uuid.New()
	router, svc := setupHandlerTest()

	want := types.LikedItemsFilter{Keyword: "게", Kind: types.PlaceKindFood, SeasonalOnly: true, Month: 12}
	svc.On("Collect", mock.Anything, userID, want).Return(&types.LikedItemsResponse{
		Items: []types.PlaceRef{{ID: "f1", Kind: types.PlaceKindFood, Title: "대게"}},
		Total: 1,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/likes?keyword=%EA%B2%8C&kind=food&seasonal=true&local=nope&month=12", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.LikedItemsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "대게", resp.Items[0].Title)
	svc.AssertExpectations(t)
}

func TestHandler_LikeCounts(t *testing.T) {
	router, svc := setupHandlerTest()
	svc.On("Counts", mock.Anything, types.PlaceKindRestaurant, []string{"1", "2"}).
		Return(map[string]int{"1": 3}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/likes/counts?kind=restaurant&ids=1,2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"1":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/likes/counts?kind=hotel&ids=1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
