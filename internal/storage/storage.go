package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const (
	defaultMaxWidth = 1280
	jpegQuality     = 85
)

// Client uploads stamp photos to a Supabase storage bucket.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	bucket     string
	serviceKey string
	maxWidth   int
}

func NewClient(baseURL, bucket, serviceKey string, maxWidth int, logger *slog.Logger) *Client {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		maxWidth:   maxWidth,
	}
}

// PublicURL is where a stored object can be read without credentials.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, key)
}

// PrepareImage decodes a photo, applies its EXIF orientation, shrinks it to
// maxWidth when wider and re-encodes it as JPEG.
func PrepareImage(raw []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unsupported image: %w", types.ErrValidation)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// UploadImage stores a photo under key and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, key string, raw []byte) (string, error) {
	ctx, span := otel.Tracer("StorageClient").Start(ctx, "UploadImage", trace.WithAttributes(
		attribute.String("storage.bucket", c.bucket),
		attribute.String("storage.key", key),
		attribute.Int("image.bytes", len(raw)),
	))
	defer span.End()
	l := c.logger.With(slog.String("method", "UploadImage"), slog.String("key", key))

	body, err := PrepareImage(raw, c.maxWidth)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid image")
		return "", err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("x-upsert", "true")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := metric.WithAttributes(attribute.String("upstream", "storage"), attribute.Int("status", status))
	metrics.Get().UpstreamRequestsTotal.Add(ctx, 1, attrs)
	metrics.Get().UpstreamDurationSeconds.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		l.ErrorContext(ctx, "Upload request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upload failed")
		return "", fmt.Errorf("failed to upload image: %w: %w", types.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		l.ErrorContext(ctx, "Storage rejected upload",
			slog.Int("status", resp.StatusCode), slog.String("body", string(snippet)))
		span.SetStatus(codes.Error, "Upload rejected")
		return "", fmt.Errorf("storage answered %d: %w", resp.StatusCode, types.ErrUpstream)
	}

	url := c.PublicURL(key)
	l.InfoContext(ctx, "Image uploaded", slog.Int("bytes", len(body)))
	span.SetStatus(codes.Ok, "Uploaded")
	return url, nil
}
