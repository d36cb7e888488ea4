package places

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "rest-key", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("maps documents", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/local/search/keyword.json", r.URL.Path)
			assert.Equal(t, "KakaoAK rest-key", r.Header.Get("Authorization"))
			assert.Equal(t, "감자탕", r.URL.Query().Get("query"))
			_, _ = io.WriteString(w, `{"meta":{"total_count":2,"is_end":true},"documents":[
				{"id":"1","place_name":"감자탕집","address_name":"서울 종로구","road_address_name":"서울 종로구 대학로 1",
				 "category_group_name":"음식점","x":"126.99","y":"37.58","place_url":"http://place.map.kakao.com/1"},
				{"id":"2","place_name":"no coords","x":"","y":""}]}`)
		})

		hits, isEnd, err := c.Search(ctx, " 감자탕 ", 1, 50)
		require.NoError(t, err)
		assert.True(t, isEnd)
		require.Len(t, hits, 1)
		assert.Equal(t, types.SearchPlace{
			ID: "1", Name: "감자탕집", Address: "서울 종로구", RoadAddress: "서울 종로구 대학로 1",
			Category: "음식점", Longitude: 126.99, Latitude: 37.58, URL: "http://place.map.kakao.com/1",
		}, hits[0])
	})

	t.Run("empty query", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, _, err := c.Search(ctx, "   ", 1, 10)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("rejected key", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"errorType":"AccessDeniedError"}`)
		})
		_, _, err := c.Search(ctx, "국밥", 1, 10)
		assert.ErrorIs(t, err, types.ErrUpstream)
	})
}
