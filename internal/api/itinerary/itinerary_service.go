package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service plans trip drafts that are not saved yet.
type Service interface {
	Plan(ctx context.Context, draft types.TripDraft) (*types.PlanResponse, error)
	Move(ctx context.Context, it types.Itinerary, m types.Move) (types.Itinerary, bool, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	loc     *time.Location
	maxDays int
}

func NewServiceImpl(loc *time.Location, maxDays int, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, loc: loc, maxDays: maxDays}
}

func (s *ServiceImpl) Plan(ctx context.Context, draft types.TripDraft) (*types.PlanResponse, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "Plan", trace.WithAttributes(
		attribute.Int("places.count", len(draft.CandidatePlaces)),
	))
	defer span.End()

	if err := ValidateDraft(draft, s.loc, s.maxDays); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid draft")
		return nil, err
	}
	totalDays := TotalDays(draft.StartDate.Time, draft.EndDate.Time, s.loc)
	span.SetAttributes(attribute.Int("trip.total_days", totalDays))
	span.SetStatus(codes.Ok, "Planned")
	return &types.PlanResponse{
		TotalDays: totalDays,
		Itinerary: Allocate(draft.CandidatePlaces, totalDays),
	}, nil
}

// CheckItinerary verifies a client supplied itinerary: buckets indexed in order
// and no place scheduled twice.
func CheckItinerary(it types.Itinerary) error {
	if len(it) == 0 {
		return fmt.Errorf("itinerary has no days: %w", types.ErrValidation)
	}
	seen := make(map[placeKey]struct{})
	for i, b := range it {
		if b.DayIndex != i {
			return fmt.Errorf("bucket %d has day index %d: %w", i, b.DayIndex, types.ErrValidation)
		}
		for _, p := range b.Places {
			k := keyOf(p)
			if _, dup := seen[k]; dup {
				return fmt.Errorf("place %s/%s is scheduled twice: %w", p.Kind, p.ID, types.ErrValidation)
			}
			seen[k] = struct{}{}
		}
	}
	return nil
}

func (s *ServiceImpl) Move(ctx context.Context, it types.Itinerary, m types.Move) (types.Itinerary, bool, error) {
	l := s.logger.With(slog.String("method", "Move"))
	if err := CheckItinerary(it); err != nil {
		l.WarnContext(ctx, "Rejected itinerary", slog.Any("error", err))
		return nil, false, err
	}
	out, changed := Apply(it, m)
	l.DebugContext(ctx, "Applied move", slog.Bool("changed", changed),
		slog.Int("source_day", m.SourceDay), slog.Int("dest_day", m.DestDay))
	return out, changed, nil
}
