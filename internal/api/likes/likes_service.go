package likes

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Toggle flips the caller's like. The flipped state is visible to View at once;
	// when the write fails the previous state is put back and the error returned.
	Toggle(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error)
	View(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error)
	Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error)
	Collect(ctx context.Context, userID uuid.UUID, filter types.LikedItemsFilter) (*types.LikedItemsResponse, error)
}

// toggleStripes bounds the lock set; keys sharing a stripe only wait on each other.
const toggleStripes = 64

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	views  *cache.Cache
	locks  [toggleStripes]sync.Mutex
	loc    *time.Location
	now    func() time.Time
}

func NewServiceImpl(repo Repository, loc *time.Location, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		views:  cache.New(5*time.Minute, 10*time.Minute),
		loc:    loc,
		now:    time.Now,
	}
}

func viewKey(userID uuid.UUID, kind types.PlaceKind, id string) string {
	return userID.String() + ":" + string(kind) + ":" + id
}

func (s *ServiceImpl) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%toggleStripes]
}

func (s *ServiceImpl) lock(key string) func() {
	mu := s.lockFor(key)
	mu.Lock()
	return mu.Unlock
}

func validID(kind types.PlaceKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown place kind %q: %w", kind, types.ErrValidation)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("place id is required: %w", types.ErrValidation)
	}
	return nil
}

func (s *ServiceImpl) View(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error) {
	if err := validID(kind, id); err != nil {
		return nil, err
	}
	key := viewKey(userID, kind, id)
	if cached, found := s.views.Get(key); found {
		state := cached.(types.LikeState)
		return &state, nil
	}
	state, err := s.repo.GetState(ctx, userID, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read like state: %w", err)
	}
	s.views.Set(key, *state, cache.DefaultExpiration)
	return state, nil
}

func (s *ServiceImpl) Toggle(ctx context.Context, userID uuid.UUID, kind types.PlaceKind, id string) (*types.LikeState, error) {
	ctx, span := otel.Tracer("LikesService").Start(ctx, "Toggle", trace.WithAttributes(
		attribute.String("like.kind", string(kind)),
		attribute.String("like.id", id),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Toggle"), slog.String("kind", string(kind)), slog.String("id", id))

	if err := validID(kind, id); err != nil {
		span.RecordError(err)
		return nil, err
	}
	key := viewKey(userID, kind, id)
	unlock := s.lock(key)
	defer unlock()

	prev, err := s.View(ctx, userID, kind, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Read failed")
		return nil, err
	}

	optimistic := types.LikeState{Liked: !prev.Liked, LikeCount: prev.LikeCount + 1}
	if prev.Liked {
		optimistic.LikeCount = max(prev.LikeCount-1, 0)
	}
	s.views.Set(key, optimistic, cache.DefaultExpiration)

	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	metrics.Get().LikeTogglesTotal.Add(ctx, 1, attrs)

	stored, err := s.repo.SetLike(ctx, userID, kind, id, optimistic.Liked)
	if err != nil {
		s.views.Set(key, *prev, cache.DefaultExpiration)
		metrics.Get().LikeRollbacksTotal.Add(ctx, 1, attrs)
		l.WarnContext(ctx, "Like write failed, restored previous state", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Rolled back")
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	s.views.Set(key, *stored, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "Toggled")
	return stored, nil
}

func (s *ServiceImpl) Counts(ctx context.Context, kind types.PlaceKind, ids []string) (map[string]int, error) {
	counts, err := s.repo.Counts(ctx, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return counts, nil
}
