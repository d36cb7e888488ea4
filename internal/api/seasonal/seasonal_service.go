package seasonal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// List returns the catalogue. regionCode 0 means every region; thisMonth keeps
	// only foods in season in the trip time zone's current month.
	List(ctx context.Context, regionCode int, thisMonth bool) ([]types.SeasonalFood, error)
	Get(ctx context.Context, id uuid.UUID) (*types.SeasonalFood, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	loc    *time.Location
	now    func() time.Time
}

func NewServiceImpl(repo Repository, loc *time.Location, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, loc: loc, now: time.Now}
}

func (s *ServiceImpl) List(ctx context.Context, regionCode int, thisMonth bool) ([]types.SeasonalFood, error) {
	ctx, span := otel.Tracer("SeasonalService").Start(ctx, "List")
	defer span.End()

	var f Filter
	if regionCode != 0 {
		if types.AreaName(regionCode) == "" {
			return nil, fmt.Errorf("unknown region code %d: %w", regionCode, types.ErrValidation)
		}
		f.RegionCode = &regionCode
	}
	if thisMonth {
		m := int(s.now().In(s.loc).Month())
		f.Month = &m
		span.SetAttributes(attribute.Int("month", m))
	}

	foods, err := s.repo.ListFoods(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "List failed")
		return nil, fmt.Errorf("failed to list seasonal foods: %w", err)
	}
	span.SetStatus(codes.Ok, "Listed")
	return foods, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.SeasonalFood, error) {
	food, err := s.repo.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}
	return food, nil
}
