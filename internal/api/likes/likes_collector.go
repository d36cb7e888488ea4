package likes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

// Collect reads liked restaurants and liked foods side by side and merges them,
// restaurants first. Ids are only unique per kind, so nothing is deduplicated.
func (s *ServiceImpl) Collect(ctx context.Context, userID uuid.UUID, filter types.LikedItemsFilter) (*types.LikedItemsResponse, error) {
	ctx, span := otel.Tracer("LikesService").Start(ctx, "Collect")
	defer span.End()
	l := s.logger.With(slog.String("method", "Collect"), slog.String("userID", userID.String()))

	if userID == uuid.Nil {
		span.SetStatus(codes.Error, "Unauthenticated")
		return nil, types.ErrUnauthenticated
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("unknown place kind %q: %w", filter.Kind, types.ErrValidation)
	}

	var restaurants []types.LikedRestaurant
	var foods []types.LikedFood
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		restaurants, err = s.repo.ListLikedRestaurants(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		foods, err = s.repo.ListLikedFoods(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		l.ErrorContext(ctx, "Failed to collect likes", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Collect failed")
		return nil, fmt.Errorf("failed to collect liked items: %w", err)
	}

	month := filter.Month
	if month < 1 || month > 12 {
		month = int(s.now().In(s.loc).Month())
	}
	items := mergeLiked(restaurants, foods, filter, month)
	span.SetAttributes(attribute.Int("likes.total", len(items)))
	span.SetStatus(codes.Ok, "Collected")
	return &types.LikedItemsResponse{Items: items, Total: len(items)}, nil
}

func matchesKeyword(p types.PlaceRef, keyword string) bool {
	if keyword == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), keyword) {
		return true
	}
	return p.LocationText != nil && strings.Contains(strings.ToLower(*p.LocationText), keyword)
}

func mergeLiked(restaurants []types.LikedRestaurant, foods []types.LikedFood, f types.LikedItemsFilter, month int) []types.PlaceRef {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	var seasonalNames []string
	localAreas := make(map[string]struct{})
	for _, food := range foods {
		if food.InSeason(month) {
			seasonalNames = append(seasonalNames, food.Place.Title)
		}
		if code := areaCodeString(food.RegionCode); code != "" {
			localAreas[code] = struct{}{}
		}
	}

	items := make([]types.PlaceRef, 0, len(restaurants)+len(foods))
	if f.Kind == "" || f.Kind == types.PlaceKindRestaurant {
		for _, r := range restaurants {
			if !matchesKeyword(r.Place, keyword) {
				continue
			}
			if f.SeasonalOnly && !servesAny(r.Place.Title, seasonalNames) {
				continue
			}
			if _, ok := localAreas[r.AreaCode]; f.LocalOnly && !ok {
				continue
			}
			items = append(items, r.Place)
		}
	}
	if f.Kind == "" || f.Kind == types.PlaceKindFood {
		for _, food := range foods {
			if !matchesKeyword(food.Place, keyword) {
				continue
			}
			if f.SeasonalOnly && !food.InSeason(month) {
				continue
			}
			if f.LocalOnly && food.RegionCode == nil {
				continue
			}
			items = append(items, food.Place)
		}
	}
	return items
}

func servesAny(title string, foods []string) bool {
	for _, name := range foods {
		if name != "" && strings.Contains(title, name) {
			return true
		}
	}
	return false
}
