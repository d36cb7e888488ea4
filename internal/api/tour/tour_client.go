package tour

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const (
	defaultBaseURL     = "https://apis.data.go.kr/B551011/KorService2"
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	initialBackoff     = 500 * time.Millisecond
	maxBackoff         = 5 * time.Second
	snippetLen         = 200
	maxBodyBytes       = 4 << 20
)

type ClientConfig struct {
	BaseURL     string
	ServiceKey  string
	Timeout     time.Duration
	MaxAttempts int
	// RPS caps outbound calls. Zero means unlimited.
	RPS float64
}

// Client talks to the KorService2 tourism content API.
type Client struct {
	logger         *slog.Logger
	httpClient     *http.Client
	baseURL        string
	serviceKey     string
	maxAttempts    int
	limiter        *rate.Limiter
	initialBackoff time.Duration
	maxBodyBytes   int64
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS)))
	}
	return &Client{
		logger:         logger,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey:     cfg.ServiceKey,
		maxAttempts:    cfg.MaxAttempts,
		limiter:        limiter,
		initialBackoff: initialBackoff,
		maxBodyBytes:   maxBodyBytes,
	}
}

// envelope is the KorService2 response wrapper. Error answers sometimes skip
// the wrapper and carry resultCode at the top level.
type envelope struct {
	Response *struct {
		Header *struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body *struct {
			Items      json.RawMessage `json:"items"`
			NumOfRows  int             `json:"numOfRows"`
			PageNo     int             `json:"pageNo"`
			TotalCount int             `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

type areaCodeItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if r := []rune(s); len(r) > snippetLen {
		return string(r[:snippetLen])
	}
	return s
}

// decodeEnvelope validates the payload shape and returns the body.
func decodeEnvelope(op string, raw []byte) (*envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return nil, fmt.Errorf("%s: %w: %s", op, types.ErrNonJSONPayload, snippet(trimmed))
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%s: payload is not JSON: %w: %s", op, types.ErrUpstream, snippet(trimmed))
	}
	if env.Response == nil {
		if env.ResultCode != "" || env.ResultMsg != "" {
			return nil, fmt.Errorf("%s: %s - %s: %w", op, env.ResultCode, env.ResultMsg, types.ErrUpstream)
		}
		return nil, fmt.Errorf("%s: unexpected payload (no response): %w: %s", op, types.ErrUpstream, snippet(trimmed))
	}
	h := env.Response.Header
	if h == nil {
		return nil, fmt.Errorf("%s: missing response.header: %w", op, types.ErrUpstream)
	}
	if h.ResultCode != "0000" && h.ResultCode != "00" {
		return nil, fmt.Errorf("%s: result %s - %s: %w", op, h.ResultCode, h.ResultMsg, types.ErrUpstream)
	}
	if env.Response.Body == nil {
		return nil, fmt.Errorf("%s: missing response.body (code=%s, msg=%s): %w", op, h.ResultCode, h.ResultMsg, types.ErrUpstream)
	}
	return &env, nil
}

// decodeItems accepts the three shapes items takes: "", {"item": {...}} and {"item": [...]}.
func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == `""` {
		return nil, nil
	}
	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed items: %w", types.ErrUpstream)
	}
	item := bytes.TrimSpace(wrapper.Item)
	if len(item) == 0 || string(item) == "null" {
		return nil, nil
	}
	if item[0] == '[' {
		var out []T
		if err := json.Unmarshal(item, &out); err != nil {
			return nil, fmt.Errorf("malformed item list: %w", types.ErrUpstream)
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(item, &one); err != nil {
		return nil, fmt.Errorf("malformed item: %w", types.ErrUpstream)
	}
	return []T{one}, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.initialBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// get calls one operation, retrying transport errors, 429 and 5xx.
func (c *Client) get(ctx context.Context, op string, params url.Values) ([]byte, error) {
	params.Set("serviceKey", c.serviceKey)
	params.Set("MobileOS", "ETC")
	params.Set("MobileApp", "harunekki")
	params.Set("_type", "json")
	endpoint := c.baseURL + "/" + op + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, retry, err := c.do(ctx, op, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.logger.WarnContext(ctx, "Tourism request failed, retrying",
			slog.String("op", op), slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, op, endpoint string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := metric.WithAttributes(attribute.String("upstream", "tourapi"), attribute.String("op", op), attribute.Int("status", status))
	metrics.Get().UpstreamRequestsTotal.Add(ctx, 1, attrs)
	metrics.Get().UpstreamDurationSeconds.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("%s: %w: %w", op, types.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to read body: %w: %w", op, types.ErrUpstream, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, false, fmt.Errorf("%s: body exceeds %d bytes: %w", op, c.maxBodyBytes, types.ErrUpstream)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retryable(resp.StatusCode),
			fmt.Errorf("%s: HTTP %d %s: %w", op, resp.StatusCode, snippet(body), types.ErrUpstream)
	}
	return body, false, nil
}

func (c *Client) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("TourClient").Start(ctx, name, trace.WithAttributes(attrs...))
}

// AreaBasedList lists content for an area, or searches by keyword when one is set.
func (c *Client) AreaBasedList(ctx context.Context, p types.TourListParams) (*types.TourPage, error) {
	op := "areaBasedList2"
	if p.Keyword != "" {
		op = "searchKeyword2"
	}
	ctx, span := c.span(ctx, "AreaBasedList",
		attribute.String("tour.op", op),
		attribute.String("tour.area", p.AreaCode),
		attribute.String("tour.content_type", p.ContentTypeID),
		attribute.Int("tour.page", p.Page),
	)
	defer span.End()

	params := url.Values{}
	params.Set("arrange", "Q")
	params.Set("pageNo", strconv.Itoa(p.Page))
	params.Set("numOfRows", strconv.Itoa(p.Size))
	if p.AreaCode != "" {
		params.Set("areaCode", p.AreaCode)
	}
	if p.SigunguCode != "" {
		params.Set("sigunguCode", p.SigunguCode)
	}
	if p.ContentTypeID != "" {
		params.Set("contentTypeId", p.ContentTypeID)
	}
	if p.Keyword != "" {
		params.Set("keyword", p.Keyword)
	}

	raw, err := c.get(ctx, op, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request failed")
		return nil, err
	}
	env, err := decodeEnvelope(op, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad payload")
		return nil, err
	}
	items, err := decodeItems[types.TourItem](env.Response.Body.Items)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if items == nil {
		items = []types.TourItem{}
	}
	body := env.Response.Body
	span.SetAttributes(attribute.Int("tour.items", len(items)))
	span.SetStatus(codes.Ok, "Listed")
	return &types.TourPage{
		Items:      items,
		PageNo:     body.PageNo,
		NumOfRows:  body.NumOfRows,
		TotalCount: body.TotalCount,
	}, nil
}

// DetailCommon fetches the common detail of one content id.
func (c *Client) DetailCommon(ctx context.Context, contentID string) (*types.TourItem, error) {
	ctx, span := c.span(ctx, "DetailCommon", attribute.String("tour.content_id", contentID))
	defer span.End()

	params := url.Values{}
	params.Set("contentId", contentID)
	raw, err := c.get(ctx, "detailCommon2", params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request failed")
		return nil, err
	}
	env, err := decodeEnvelope("detailCommon2", raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad payload")
		return nil, err
	}
	items, err := decodeItems[types.TourItem](env.Response.Body.Items)
	if err != nil {
		return nil, fmt.Errorf("detailCommon2: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("content %s: %w", contentID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Fetched")
	return &items[0], nil
}

// AreaCodes lists the province level area codes.
func (c *Client) AreaCodes(ctx context.Context) ([]types.AreaCode, error) {
	ctx, span := c.span(ctx, "AreaCodes")
	defer span.End()

	params := url.Values{}
	params.Set("numOfRows", "50")
	raw, err := c.get(ctx, "areaCode2", params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	env, err := decodeEnvelope("areaCode2", raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	items, err := decodeItems[areaCodeItem](env.Response.Body.Items)
	if err != nil {
		return nil, fmt.Errorf("areaCode2: %w", err)
	}
	out := make([]types.AreaCode, 0, len(items))
	for _, it := range items {
		code, err := strconv.Atoi(it.Code)
		if err != nil {
			continue
		}
		out = append(out, types.AreaCode{Code: code, Name: it.Name})
	}
	span.SetStatus(codes.Ok, "Listed")
	return out, nil
}
