package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("bad title: %w", types.ErrValidation), http.StatusBadRequest},
		{"unauthenticated", types.ErrUnauthenticated, http.StatusUnauthorized},
		{"forbidden", types.ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("diary: %w", types.ErrNotFound), http.StatusNotFound},
		{"conflict", types.ErrConflict, http.StatusConflict},
		{"upstream", fmt.Errorf("tour: %w", types.ErrUpstream), http.StatusBadGateway},
		{"non json", types.ErrNonJSONPayload, http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestHandleServiceError(t *testing.T) {
	t.Run("validation keeps message", func(t *testing.T) {
		rr := httptest.NewRecorder()
		HandleServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("title is required: %w", types.ErrValidation), "Failed")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "title is required")
	})

	t.Run("internal hides message", func(t *testing.T) {
		rr := httptest.NewRecorder()
		HandleServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("pq: secret detail"), "Failed to load diary")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to load diary")
		assert.NotContains(t, rr.Body.String(), "secret detail")
	})
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"title":"제주"}`, ""},
		{"empty", ``, "body must not be empty"},
		{"unknown field", `{"title":"a","extra":1}`, `unknown key "extra"`},
		{"wrong type", `{"title":1}`, `incorrect JSON type for field "title"`},
		{"trailing", `{"title":"a"}{"title":"b"}`, "single JSON value"},
		{"malformed", `{"title":`, "badly-formed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := DecodeJSONBody(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "제주", dst.Title)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVerifyAudience(t *testing.T) {
	assert.True(t, VerifyAudience(nil, ""))
	assert.False(t, VerifyAudience(nil, "authenticated"))
	assert.True(t, VerifyAudience(jwt.ClaimStrings{"anon", "authenticated"}, "authenticated"))
	assert.False(t, VerifyAudience(jwt.ClaimStrings{"anon"}, "authenticated"))
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&size=x&ids=a,,b%20,c", nil)
	assert.Equal(t, 3, QueryInt(req, "page", 1))
	assert.Equal(t, 20, QueryInt(req, "size", 20))
	assert.Equal(t, 7, QueryInt(req, "missing", 7))
	assert.Equal(t, []string{"a", "b", "c"}, QueryList(req, "ids"))
	assert.Nil(t, QueryList(req, "missing"))
}

func TestTextSanitizer(t *testing.T) {
	s := NewTextSanitizer()
	assert.Equal(t, "맛있는 닭갈비", s.Clean(`  <b>맛있는</b> 닭갈비<script>alert(1)</script> `))
	assert.Equal(t, "Tom & Jerry", s.Clean("Tom &amp; Jerry"))
	assert.Equal(t, "", s.Clean(""))
}
