package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const (
	defaultBaseURL   = "https://dapi.kakao.com"
	maxPageSize      = 15
	maxResponseBytes = 1 << 20
)

// Client runs keyword searches against the Kakao local API.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	restAPIKey string
}

func NewClient(baseURL, restAPIKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		restAPIKey: restAPIKey,
	}
}

type document struct {
	ID                string `json:"id"`
	PlaceName         string `json:"place_name"`
	AddressName       string `json:"address_name"`
	RoadAddressName   string `json:"road_address_name"`
	Phone             string `json:"phone"`
	CategoryGroupName string `json:"category_group_name"`
	CategoryName      string `json:"category_name"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	PlaceURL          string `json:"place_url"`
}

type searchResponse struct {
	Meta struct {
		TotalCount    int  `json:"total_count"`
		PageableCount int  `json:"pageable_count"`
		IsEnd         bool `json:"is_end"`
	} `json:"meta"`
	Documents []document `json:"documents"`
}

// toPlace parses the string coordinates. Documents without them are dropped.
func (d document) toPlace() (types.SearchPlace, bool) {
	x, errX := strconv.ParseFloat(d.X, 64)
	y, errY := strconv.ParseFloat(d.Y, 64)
	if errX != nil || errY != nil {
		return types.SearchPlace{}, false
	}
	category := d.CategoryGroupName
	if category == "" {
		category = d.CategoryName
	}
	return types.SearchPlace{
		ID:          d.ID,
		Name:        d.PlaceName,
		Address:     d.AddressName,
		RoadAddress: d.RoadAddressName,
		Phone:       d.Phone,
		Category:    category,
		Longitude:   x,
		Latitude:    y,
		URL:         d.PlaceURL,
	}, true
}

// Search returns keyword hits and whether this was the last page.
func (c *Client) Search(ctx context.Context, query string, page, size int) ([]types.SearchPlace, bool, error) {
	ctx, span := otel.Tracer("KakaoClient").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.page", page),
	))
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, true, fmt.Errorf("query is required: %w", types.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = maxPageSize
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/local/search/keyword.json?"+params.Encode(), nil)
	if err != nil {
		return nil, true, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.restAPIKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := metric.WithAttributes(attribute.String("upstream", "kakao"), attribute.Int("status", status))
	metrics.Get().UpstreamRequestsTotal.Add(ctx, 1, attrs)
	metrics.Get().UpstreamDurationSeconds.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request failed")
		return nil, true, fmt.Errorf("place search failed: %w: %w", types.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		c.logger.ErrorContext(ctx, "Place search rejected",
			slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		span.SetStatus(codes.Error, "Rejected")
		return nil, true, fmt.Errorf("place search answered %d: %w", resp.StatusCode, types.ErrUpstream)
	}

	var out searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		span.RecordError(err)
		return nil, true, fmt.Errorf("malformed search response: %w", types.ErrUpstream)
	}
	hits := make([]types.SearchPlace, 0, len(out.Documents))
	for _, d := range out.Documents {
		if p, ok := d.toPlace(); ok {
			hits = append(hits, p)
		}
	}
	span.SetAttributes(attribute.Int("search.hits", len(hits)))
	span.SetStatus(codes.Ok, "Searched")
	return hits, out.Meta.IsEnd, nil
}
