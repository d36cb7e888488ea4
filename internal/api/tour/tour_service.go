package tour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultCacheTTL = 10 * time.Minute
)

var _ Service = (*ServiceImpl)(nil)

// Upstream is the slice of the tourism API the service needs.
type Upstream interface {
	AreaBasedList(ctx context.Context, p types.TourListParams) (*types.TourPage, error)
	DetailCommon(ctx context.Context, contentID string) (*types.TourItem, error)
	AreaCodes(ctx context.Context) ([]types.AreaCode, error)
}

// LikeCounter supplies like totals for restaurant listings.
type LikeCounter interface {
	Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error)
}

type Service interface {
	// Places serves a list page, falling back to the local copy marked stale
	// when the upstream call fails.
	Places(ctx context.Context, p types.TourListParams) (*types.TourPage, error)
	Detail(ctx context.Context, contentID string) (*types.TourItem, error)
	AreaCodes(ctx context.Context) []types.AreaCode
	HotRestaurants(ctx context.Context, p types.TourListParams) (*types.HotRestaurantsPage, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	upstream Upstream
	repo     Repository
	likes    LikeCounter
	cache    *cache.Cache
}

func NewServiceImpl(upstream Upstream, repo Repository, likes LikeCounter, ttl time.Duration, logger *slog.Logger) *ServiceImpl {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ServiceImpl{
		logger:   logger,
		upstream: upstream,
		repo:     repo,
		likes:    likes,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// NormalizeParams clamps paging to sane bounds.
func NormalizeParams(p types.TourListParams) types.TourListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	p.Keyword = strings.TrimSpace(p.Keyword)
	return p
}

func pageKey(p types.TourListParams) string {
	return fmt.Sprintf("page:%s:%s:%s:%s:%d:%d", p.AreaCode, p.SigunguCode, p.ContentTypeID, p.Keyword, p.Page, p.Size)
}

func (s *ServiceImpl) Places(ctx context.Context, p types.TourListParams) (*types.TourPage, error) {
	ctx, span := otel.Tracer("TourService").Start(ctx, "Places")
	defer span.End()
	p = NormalizeParams(p)
	l := s.logger.With(slog.String("method", "Places"), slog.String("areaCode", p.AreaCode), slog.Int("page", p.Page))

	key := pageKey(p)
	if cached, found := s.cache.Get(key); found {
		page := *cached.(*types.TourPage)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &page, nil
	}

	page, err := s.upstream.AreaBasedList(ctx, p)
	if err == nil {
		s.cache.Set(key, page, cache.DefaultExpiration)
		if err := s.repo.UpsertPOIs(ctx, page.Items); err != nil {
			l.WarnContext(ctx, "Failed to keep local copy of tourism page", slog.Any("error", err))
		}
		span.SetStatus(codes.Ok, "Fetched")
		return page, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}

	l.WarnContext(ctx, "Tourism API failed, serving local copy", slog.Any("error", err))
	span.RecordError(err)
	fallback, ferr := s.repo.ListPOIs(ctx, p)
	if ferr != nil || len(fallback.Items) == 0 {
		span.SetStatus(codes.Error, "No fallback")
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	fallback.Stale = true
	metrics.Get().UpstreamFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "list")))
	span.SetStatus(codes.Ok, "Served stale")
	return fallback, nil
}

func (s *ServiceImpl) Detail(ctx context.Context, contentID string) (*types.TourItem, error) {
	ctx, span := otel.Tracer("TourService").Start(ctx, "Detail")
	defer span.End()

	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, fmt.Errorf("content id is required: %w", types.ErrValidation)
	}
	key := "detail:" + contentID
	if cached, found := s.cache.Get(key); found {
		item := *cached.(*types.TourItem)
		return &item, nil
	}

	item, err := s.upstream.DetailCommon(ctx, contentID)
	if err == nil {
		s.cache.Set(key, item, cache.DefaultExpiration)
		return item, nil
	}
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, context.Canceled) {
		return nil, err
	}
	local, lerr := s.repo.GetPOI(ctx, contentID)
	if lerr != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No fallback")
		return nil, fmt.Errorf("failed to fetch detail: %w", err)
	}
	metrics.Get().UpstreamFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "detail")))
	return local, nil
}

// AreaCodes prefers the live list and falls back to the built-in one.
func (s *ServiceImpl) AreaCodes(ctx context.Context) []types.AreaCode {
	if cached, found := s.cache.Get("areas"); found {
		return cached.([]types.AreaCode)
	}
	areas, err := s.upstream.AreaCodes(ctx)
	if err != nil || len(areas) == 0 {
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to fetch area codes", slog.Any("error", err))
		}
		return types.AreaCodes
	}
	s.cache.Set("areas", areas, cache.NoExpiration)
	return areas
}

// HotRestaurants lists restaurant content in upstream order with like totals attached.
func (s *ServiceImpl) HotRestaurants(ctx context.Context, p types.TourListParams) (*types.HotRestaurantsPage, error) {
	ctx, span := otel.Tracer("TourService").Start(ctx, "HotRestaurants")
	defer span.End()

	p.ContentTypeID = types.RestaurantContentTypeID
	page, err := s.Places(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, err
	}

	ids := make([]string, len(page.Items))
	for i, it := range page.Items {
		ids[i] = it.ContentID
	}
	counts, err := s.likes.Counts(ctx, types.PlaceKindRestaurant, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Like counts unavailable", slog.Any("error", err))
		counts = map[string]int{}
	}

	out := &types.HotRestaurantsPage{
		Items:      make([]types.HotRestaurant, len(page.Items)),
		PageNo:     page.PageNo,
		TotalCount: page.TotalCount,
		Stale:      page.Stale,
	}
	for i, it := range page.Items {
		out.Items[i] = types.HotRestaurant{TourItem: it, LikeCount: counts[it.ContentID]}
	}
	span.SetStatus(codes.Ok, "Listed")
	return out, nil
}
