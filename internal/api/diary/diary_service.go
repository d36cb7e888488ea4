package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/harunekki-api/app/observability/metrics"
	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/api/itinerary"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// ImageStore keeps stamp photos and hands back a public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, key string, raw []byte) (string, error)
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req types.CreateDiaryRequest) (*types.DiaryWithPlaces, error)
	List(ctx context.Context, userID uuid.UUID) ([]types.Diary, error)
	Get(ctx context.Context, userID, diaryID uuid.UUID) (*types.DiaryWithPlaces, error)
	Delete(ctx context.Context, userID, diaryID uuid.UUID) error
	SetCover(ctx context.Context, userID, diaryID uuid.UUID, url string) error
	MovePlace(ctx context.Context, userID, diaryID uuid.UUID, m types.Move) (*types.DiaryWithPlaces, bool, error)
	RecordStamp(ctx context.Context, userID, placeID uuid.UUID, in types.StampInput) (*types.StampResult, error)
	Badges(ctx context.Context, userID uuid.UUID) ([]types.Badge, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	images    ImageStore
	sanitizer *api.TextSanitizer
	loc       *time.Location
	maxDays   int
}

func NewServiceImpl(repo Repository, images ImageStore, loc *time.Location, maxDays int, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		images:    images,
		sanitizer: api.NewTextSanitizer(),
		loc:       loc,
		maxDays:   maxDays,
	}
}

// regionInputs lists titles first so the token fallback uses a place name.
func regionInputs(places []types.PlaceRef) []string {
	names := make([]string, 0, len(places)*2)
	for _, p := range places {
		names = append(names, p.Title)
	}
	for _, p := range places {
		if p.LocationText != nil && *p.LocationText != "" {
			names = append(names, *p.LocationText)
		}
	}
	return names
}

func (s *ServiceImpl) Create(ctx context.Context, userID uuid.UUID, req types.CreateDiaryRequest) (*types.DiaryWithPlaces, error) {
	ctx, span := otel.Tracer("DiaryService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Create"), slog.String("userID", userID.String()))

	start, err := types.ParseDate(req.StartDate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	end, err := types.ParseDate(req.EndDate)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	places := req.Places
	if len(req.Placements) > 0 {
		places = make([]types.PlaceRef, 0, len(req.Placements))
		for _, pl := range req.Placements {
			places = append(places, pl.Place)
		}
	}
	draft := types.TripDraft{
		Title:           s.sanitizer.Clean(req.Title),
		StartDate:       start,
		EndDate:         end,
		CandidatePlaces: places,
	}
	if err := itinerary.ValidateDraft(draft, s.loc, s.maxDays); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid diary")
		return nil, err
	}

	totalDays := itinerary.TotalDays(start.Time, end.Time, s.loc)
	var rows []types.DiaryPlaceInput
	if len(req.Placements) > 0 {
		if _, err := itinerary.AllocateExplicit(req.Placements, totalDays); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Invalid placements")
			return nil, err
		}
		rows = itinerary.ExplicitRows(req.Placements)
	} else {
		rows = itinerary.Rows(itinerary.Allocate(places, totalDays))
	}

	region := ClassifyRegion(regionInputs(places))
	created, err := s.repo.CreateDiary(ctx, types.Diary{
		UserID:     userID,
		Title:      draft.Title,
		StartDate:  start,
		EndDate:    end,
		RegionName: &region,
	}, rows)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create diary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Create failed")
		return nil, fmt.Errorf("failed to create diary: %w", err)
	}
	metrics.Get().DiariesCreatedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Diary created",
		slog.String("diaryID", created.ID.String()),
		slog.Int("total_days", totalDays),
		slog.Int("places", len(rows)),
	)
	span.SetStatus(codes.Ok, "Diary created")
	return s.Get(ctx, userID, created.ID)
}

func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]types.Diary, error) {
	diaries, err := s.repo.ListDiaries(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list diaries", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list diaries: %w", err)
	}
	return diaries, nil
}

func completed(places []types.DiaryPlace) bool {
	if len(places) == 0 {
		return false
	}
	for _, p := range places {
		if !p.Stamped() {
			return false
		}
	}
	return true
}

func placeNames(places []types.DiaryPlace) []string {
	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.PlaceName)
	}
	return names
}

// assemble groups places into one entry per trip day, in visiting order.
func (s *ServiceImpl) assemble(d *types.Diary, places []types.DiaryPlace) *types.DiaryWithPlaces {
	totalDays := itinerary.TotalDays(d.StartDate.Time, d.EndDate.Time, s.loc)
	days := make([]types.DiaryDay, totalDays)
	for i := range days {
		days[i] = types.DiaryDay{Day: i + 1, Places: []types.DiaryPlace{}}
	}
	for _, p := range places {
		idx := min(max(p.Day, 1), totalDays) - 1
		days[idx].Places = append(days[idx].Places, p)
	}

	region := ClassifyRegion(placeNames(places))
	if d.RegionName != nil && *d.RegionName != "" {
		region = *d.RegionName
	}
	return &types.DiaryWithPlaces{
		Diary:      *d,
		Days:       days,
		Completed:  completed(places),
		RegionName: region,
	}
}

func (s *ServiceImpl) Get(ctx context.Context, userID, diaryID uuid.UUID) (*types.DiaryWithPlaces, error) {
	d, err := s.repo.GetDiary(ctx, userID, diaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get diary: %w", err)
	}
	places, err := s.repo.ListPlaces(ctx, diaryID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list diary places", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get diary places: %w", err)
	}
	return s.assemble(d, places), nil
}

func (s *ServiceImpl) Delete(ctx context.Context, userID, diaryID uuid.UUID) error {
	if err := s.repo.DeleteDiary(ctx, userID, diaryID); err != nil {
		return fmt.Errorf("failed to delete diary: %w", err)
	}
	return nil
}

func (s *ServiceImpl) SetCover(ctx context.Context, userID, diaryID uuid.UUID, url string) error {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("cover image must be an http(s) url: %w", types.ErrValidation)
	}
	if err := s.repo.SetCover(ctx, userID, diaryID, url); err != nil {
		return fmt.Errorf("failed to set cover: %w", err)
	}
	return nil
}

func placeKind(p types.DiaryPlace) types.PlaceKind {
	if p.FoodID != nil {
		return types.PlaceKindFood
	}
	return types.PlaceKindRestaurant
}

// MovePlace reorders a saved diary. Rows are keyed by their own id, so the
// duplicate guard never rejects two visits to the same restaurant.
func (s *ServiceImpl) MovePlace(ctx context.Context, userID, diaryID uuid.UUID, m types.Move) (*types.DiaryWithPlaces, bool, error) {
	ctx, span := otel.Tracer("DiaryService").Start(ctx, "MovePlace", trace.WithAttributes(
		attribute.String("diary.id", diaryID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "MovePlace"), slog.String("diaryID", diaryID.String()))

	current, err := s.Get(ctx, userID, diaryID)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	it := make(types.Itinerary, len(current.Days))
	before := make(map[string]PlacePosition)
	for i, day := range current.Days {
		refs := make([]types.PlaceRef, 0, len(day.Places))
		for j, p := range day.Places {
			refs = append(refs, types.PlaceRef{ID: p.ID.String(), Kind: placeKind(p), Title: p.PlaceName})
			before[p.ID.String()] = PlacePosition{PlaceID: p.ID, Day: i + 1, OrderIndex: j + 1}
		}
		it[i] = types.DayBucket{DayIndex: i, Places: refs}
	}

	moved, changed := itinerary.Apply(it, m)
	if !changed {
		span.SetStatus(codes.Ok, "No-op move")
		return current, false, nil
	}

	var positions []PlacePosition
	for i, b := range moved {
		for j, ref := range b.Places {
			old := before[ref.ID]
			if old.Day != i+1 || old.OrderIndex != j+1 {
				positions = append(positions, PlacePosition{PlaceID: old.PlaceID, Day: i + 1, OrderIndex: j + 1})
			}
		}
	}
	if err := s.repo.UpdatePositions(ctx, userID, diaryID, positions); err != nil {
		l.ErrorContext(ctx, "Failed to persist move", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move failed")
		return nil, false, fmt.Errorf("failed to move diary place: %w", err)
	}
	l.InfoContext(ctx, "Diary place moved", slog.Int("rows", len(positions)))
	span.SetStatus(codes.Ok, "Moved")

	updated, err := s.Get(ctx, userID, diaryID)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (s *ServiceImpl) RecordStamp(ctx context.Context, userID, placeID uuid.UUID, in types.StampInput) (*types.StampResult, error) {
	ctx, span := otel.Tracer("DiaryService").Start(ctx, "RecordStamp", trace.WithAttributes(
		attribute.String("place.id", placeID.String()),
		attribute.Bool("stamp.has_photo", len(in.Photo) > 0),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "RecordStamp"), slog.String("placeID", placeID.String()))

	place, err := s.repo.GetPlace(ctx, userID, placeID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load diary place: %w", err)
	}
	siblings, err := s.repo.ListPlaces(ctx, place.DiaryID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load diary places: %w", err)
	}
	wasComplete := completed(siblings)

	stamp := types.StampData{
		Title:       s.sanitizer.Clean(in.Title),
		Description: s.sanitizer.Clean(in.Description),
	}
	if stamp.Title == "" {
		stamp.Title = place.PlaceName
	}
	if place.StampData != nil {
		stamp.ImageURL = place.StampData.ImageURL
	}
	if len(in.Photo) > 0 {
		key := fmt.Sprintf("%s/%s/%s.jpg", userID, place.DiaryID, uuid.New())
		url, err := s.images.UploadImage(ctx, key, in.Photo)
		if err != nil {
			l.ErrorContext(ctx, "Failed to upload stamp photo", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Upload failed")
			return nil, fmt.Errorf("failed to upload stamp photo: %w", err)
		}
		stamp.ImageURL = url
	}

	updated, err := s.repo.RecordStamp(ctx, userID, placeID, stamp)
	if err != nil {
		l.ErrorContext(ctx, "Failed to record stamp", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Stamp failed")
		return nil, fmt.Errorf("failed to record stamp: %w", err)
	}
	metrics.Get().StampsRecordedTotal.Add(ctx, 1)

	for i := range siblings {
		if siblings[i].ID == updated.ID {
			siblings[i] = *updated
		}
	}
	result := &types.StampResult{Place: *updated}
	if !wasComplete && completed(siblings) {
		region := s.badgeRegion(ctx, l, userID, place.DiaryID, siblings)
		result.BadgeEarned = true
		result.RegionName = &region
		metrics.Get().BadgesEarnedTotal.Add(ctx, 1)
		l.InfoContext(ctx, "Badge earned", slog.String("diaryID", place.DiaryID.String()), slog.String("region", region))
	}
	span.SetAttributes(attribute.Bool("stamp.badge_earned", result.BadgeEarned))
	span.SetStatus(codes.Ok, "Stamp recorded")
	return result, nil
}

// badgeRegion keeps the region stored at creation, which also saw the places'
// location text. Only a missing or fallback label is classified again from names.
func (s *ServiceImpl) badgeRegion(ctx context.Context, l *slog.Logger, userID, diaryID uuid.UUID, places []types.DiaryPlace) string {
	d, err := s.repo.GetDiary(ctx, userID, diaryID)
	if err != nil {
		l.WarnContext(ctx, "Failed to read diary region", slog.Any("error", err))
	} else if d.RegionName != nil && *d.RegionName != "" && *d.RegionName != FallbackRegion {
		return *d.RegionName
	}
	region := ClassifyRegion(placeNames(places))
	if err := s.repo.SetRegion(ctx, userID, diaryID, region); err != nil {
		l.WarnContext(ctx, "Failed to store diary region", slog.Any("error", err))
	}
	return region
}

func (s *ServiceImpl) Badges(ctx context.Context, userID uuid.UUID) ([]types.Badge, error) {
	badges, err := s.repo.ListBadges(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list badges", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}
