package tour

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Places(ctx context.Context, p types.TourListParams) (*types.TourPage, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TourPage), args.Error(1)
}

func (m *MockService) Detail(ctx context.Context, contentID string) (*types.TourItem, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TourItem), args.Error(1)
}

func (m *MockService) AreaCodes(ctx context.Context) []types.AreaCode {
	return m.Called(ctx).Get(0).([]types.AreaCode)
}

func (m *MockService) HotRestaurants(ctx context.Context, p types.TourListParams) (*types.HotRestaurantsPage, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotRestaurantsPage), args.Error(1)
}

func setupHandlerTest() (http.Handler, *MockService) {
	svc := new(MockService)
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Get("/tour/areas", h.ListAreas)
	r.Get("/tour/places", h.ListPlaces)
	r.Get("/tour/places/{contentID}", h.GetPlace)
	r.Get("/restaurants/hot", h.HotRestaurants)
	return r, svc
}

func TestHandler_ListPlaces(t *testing.T) {
	t.Run("stale page is still a 200", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("Places", mock.Anything, types.TourListParams{AreaCode: "32", Page: 2, Size: 20}).
			Return(&types.TourPage{Items: []types.TourItem{{ContentID: "1"}}, Stale: true}, nil).Once()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/places?areaCode=32&page=2", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"stale":true`)
	})

	t.Run("non numeric area", func(t *testing.T) {
		router, _ := setupHandlerTest()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/places?areaCode=seoul", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream down is a 502", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("Places", mock.Anything, mock.Anything).Return(nil, types.ErrNonJSONPayload).Once()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/places", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandler_GetPlaceAndAreas(t *testing.T) {
	router, svc := setupHandlerTest()
	svc.On("Detail", mock.Anything, "404").Return(nil, types.ErrNotFound).Once()
	svc.On("AreaCodes", mock.Anything).Return(types.AreaCodes).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/places/404", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tour/areas", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"제주"`)
}
