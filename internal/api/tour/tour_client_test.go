package tour

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(ClientConfig{BaseURL: srv.URL, ServiceKey: "secret"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.initialBackoff = time.Millisecond
	return c
}

const listBody = `{"response":{"header":{"resultCode":"0000","resultMsg":"OK"},
"body":{"items":{"item":[{"contentid":"1","title":"명동 칼국수","mapx":"126.98","mapy":"37.56","areacode":"1"},
{"contentid":"2","title":"을지로 노가리"}]},"numOfRows":20,"pageNo":1,"totalCount":2}}}`

func TestClient_AreaBasedList(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed params and decoding", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/areaBasedList2", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "ETC", q.Get("MobileOS"))
			assert.Equal(t, "harunekki", q.Get("MobileApp"))
			assert.Equal(t, "json", q.Get("_type"))
			assert.Equal(t, "secret", q.Get("serviceKey"))
			assert.Equal(t, "39", q.Get("contentTypeId"))
			assert.Equal(t, "1", q.Get("areaCode"))
			_, _ = io.WriteString(w, listBody)
		})

		page, err := c.AreaBasedList(ctx, types.TourListParams{AreaCode: "1", ContentTypeID: "39", Page: 1, Size: 20})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 2, page.TotalCount)
		require.NotNil(t, page.Items[0].Coordinates())
		assert.Nil(t, page.Items[1].Coordinates())
	})

	t.Run("keyword switches to search", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/searchKeyword2", r.URL.Path)
			assert.Equal(t, "닭갈비", r.URL.Query().Get("keyword"))
			_, _ = io.WriteString(w, listBody)
		})
		_, err := c.AreaBasedList(ctx, types.TourListParams{Keyword: "닭갈비", Page: 1, Size: 10})
		require.NoError(t, err)
	})

	t.Run("items shapes", func(t *testing.T) {
		bodies := map[string]int{
			`{"response":{"header":{"resultCode":"0000"},"body":{"items":"","totalCount":0}}}`:                            0,
			`{"response":{"header":{"resultCode":"00"},"body":{"items":{"item":{"contentid":"9","title":"x"}}}}}`:         1,
			`{"response":{"header":{"resultCode":"0000"},"body":{"items":null}}}`:                                         0,
			`{"response":{"header":{"resultCode":"0000"},"body":{"items":{"item":[{"contentid":"1"},{"contentid":"2"}]}}}}`: 2,
		}
		for body, want := range bodies {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			page, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
			require.NoError(t, err, body)
			assert.Len(t, page.Items, want, body)
			assert.NotNil(t, page.Items)
		}
	})

	t.Run("html payload", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "  <OpenAPI_ServiceResponse><cmmMsgHeader>SERVICE_KEY_IS_NOT_REGISTERED_ERROR"+strings.Repeat("x", 500))
		})
		_, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.ErrorIs(t, err, types.ErrNonJSONPayload)
		assert.Contains(t, err.Error(), "<OpenAPI_ServiceResponse>")
		assert.Less(t, len(err.Error()), 300)
	})

	t.Run("oversized body is refused without retry", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			_, _ = io.WriteString(w, listBody+strings.Repeat(" ", 64))
		})
		c.maxBodyBytes = int64(len(listBody))
		_, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.ErrorIs(t, err, types.ErrUpstream)
		assert.Contains(t, err.Error(), "body exceeds")
		assert.Equal(t, int32(1), calls.Load())

		c.maxBodyBytes = int64(len(listBody)) + 64
		page, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("shape errors", func(t *testing.T) {
		for _, body := range []string{
			`{"foo":1}`,
			`{"response":{}}`,
			`{"response":{"header":{"resultCode":"0000"}}}`,
			`{"response":{"header":{"resultCode":"22","resultMsg":"LIMITED"},"body":{}}}`,
			`{"resultCode":"10","resultMsg":"INVALID_REQUEST_PARAMETER_ERROR"}`,
			`not json`,
		} {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
			assert.ErrorIs(t, err, types.ErrUpstream, body)
		}
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, listBody)
		})
		page, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.ErrorIs(t, err, types.ErrUpstream)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		})
		_, err := c.AreaBasedList(ctx, types.TourListParams{Page: 1, Size: 10})
		require.ErrorIs(t, err, types.ErrUpstream)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Backoff(t *testing.T) {
	c := NewClient(ClientConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 500*time.Millisecond, c.backoff(0))
	assert.Equal(t, time.Second, c.backoff(1))
	assert.Equal(t, 4*time.Second, c.backoff(3))
	assert.Equal(t, 5*time.Second, c.backoff(4))
	assert.Equal(t, 5*time.Second, c.backoff(10))
}

func TestClient_DetailAndAreas(t *testing.T) {
	ctx := context.Background()

	t.Run("detail", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/detailCommon2", r.URL.Path)
			assert.Equal(t, "42", r.URL.Query().Get("contentId"))
			_, _ = io.WriteString(w, `{"response":{"header":{"resultCode":"0000"},"body":{"items":{"item":[{"contentid":"42","title":"속초 물회"}]}}}}`)
		})
		item, err := c.DetailCommon(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "속초 물회", item.Title)
	})

	t.Run("detail without items", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"response":{"header":{"resultCode":"0000"},"body":{"items":""}}}`)
		})
		_, err := c.DetailCommon(ctx, "42")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("areas", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"response":{"header":{"resultCode":"0000"},"body":{"items":{"item":[{"code":"1","name":"서울"},{"code":"39","name":"제주도"}]}}}}`)
		})
		areas, err := c.AreaCodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.AreaCode{{Code: 1, Name: "서울"}, {Code: 39, Name: "제주도"}}, areas)
	})
}
