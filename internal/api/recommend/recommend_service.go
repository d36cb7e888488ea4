package recommend

import (
	"context"
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
	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const (
	recommendTemperature  = 0.3
	foodTemperature       = 0.7
	restaurantTemperature = 0.3
	maxHistoryTurns       = 20
	noRecommendation      = "추천을 생성하지 못했어요."
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error)
	// EnhanceFood and EnhanceRestaurant never fail on model errors; they answer
	// with a template sentence and Success=false instead.
	EnhanceFood(ctx context.Context, req types.EnhanceRequest) (*types.EnhanceResponse, error)
	EnhanceRestaurant(ctx context.Context, req types.EnhanceRequest) (*types.EnhanceResponse, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	llm       Generator
	cache     *cache.Cache
	sanitizer *api.TextSanitizer
}

func NewServiceImpl(llm Generator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		llm:       llm,
		cache:     cache.New(24*time.Hour, time.Hour),
		sanitizer: api.NewTextSanitizer(),
	}
}

func (s *ServiceImpl) Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "Recommend")
	defer span.End()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		span.SetStatus(codes.Error, "Empty query")
		return nil, fmt.Errorf("query is required: %w", types.ErrValidation)
	}
	history := req.ConversationHistory
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	text, err := s.llm.Generate(ctx, Prompt{
		System:      recommendSystemPrompt(req.PreviousRecommendations),
		History:     history,
		User:        query,
		Temperature: recommendTemperature,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Recommendation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return nil, fmt.Errorf("failed to recommend: %w", err)
	}
	text = s.sanitizer.Clean(text)
	if text == "" {
		text = noRecommendation
	}
	span.SetStatus(codes.Ok, "Recommended")
	return &types.RecommendResponse{Text: text}, nil
}

type enhanceKind struct {
	name        string
	system      string
	prompt      func(title, original, location string) string
	fallback    func(title, location string) string
	temperature float32
}

var (
	foodKind       = enhanceKind{"food", foodSystem, foodPrompt, FoodFallback, foodTemperature}
	restaurantKind = enhanceKind{"restaurant", restaurantSystem, restaurantPrompt, RestaurantFallback, restaurantTemperature}
)

func (s *ServiceImpl) EnhanceFood(ctx context.Context, req types.EnhanceRequest) (*types.EnhanceResponse, error) {
	return s.enhance(ctx, foodKind, req)
}

func (s *ServiceImpl) EnhanceRestaurant(ctx context.Context, req types.EnhanceRequest) (*types.EnhanceResponse, error) {
	return s.enhance(ctx, restaurantKind, req)
}

func (s *ServiceImpl) enhance(ctx context.Context, k enhanceKind, req types.EnhanceRequest) (*types.EnhanceResponse, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "Enhance")
	defer span.End()
	span.SetAttributes(attribute.String("enhance.kind", k.name))

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", types.ErrValidation)
	}
	location := strings.TrimSpace(req.Location)

	key := k.name + "|" + title + "|" + location
	if cached, found := s.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &types.EnhanceResponse{Description: cached.(string), Success: true}, nil
	}

	text, err := s.llm.Generate(ctx, Prompt{
		System:      k.system,
		User:        k.prompt(title, strings.TrimSpace(req.OriginalDescription), location),
		Temperature: k.temperature,
	})
	if err == nil {
		text = s.sanitizer.Clean(text)
	}
	if err != nil || text == "" {
		s.logger.WarnContext(ctx, "Serving fallback description",
			slog.String("kind", k.name), slog.String("title", title), slog.Any("error", err))
		metrics.Get().LLMFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", k.name)))
		span.SetStatus(codes.Error, "Fallback")
		return &types.EnhanceResponse{Description: k.fallback(title, location), Success: false}, nil
	}

	s.cache.Set(key, text, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Enhanced")
	return &types.EnhanceResponse{Description: text, Success: true}, nil
}
