package itinerary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

// DefaultMaxTripDays applies when no trip length limit is configured.
const DefaultMaxTripDays = 365

// calendarDay drops the clock so only the date in loc is compared.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TotalDays is the inclusive number of calendar days between start and end in loc.
// Time of day is ignored, so a same-day trip has one day.
func TotalDays(start, end time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	days := (calendarDay(end, loc).Unix()-calendarDay(start, loc).Unix())/86400 + 1
	if days < 1 {
		return 1
	}
	return int(days)
}

// ValidateDraft rejects drafts without a title, with a missing date, with an inverted range
// or lasting more than maxDays. maxDays <= 0 means DefaultMaxTripDays.
func ValidateDraft(d types.TripDraft, loc *time.Location, maxDays int) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("trip title is required: %w", types.ErrValidation)
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return fmt.Errorf("trip start and end dates are required: %w", types.ErrValidation)
	}
	if loc == nil {
		loc = time.UTC
	}
	if calendarDay(d.EndDate.Time, loc).Before(calendarDay(d.StartDate.Time, loc)) {
		return fmt.Errorf("trip end date is before start date: %w", types.ErrValidation)
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxTripDays
	}
	if days := TotalDays(d.StartDate.Time, d.EndDate.Time, loc); days > maxDays {
		return fmt.Errorf("trip lasts %d days, at most %d allowed: %w", days, maxDays, types.ErrValidation)
	}
	seen := make(map[placeKey]struct{}, len(d.CandidatePlaces))
	for _, p := range d.CandidatePlaces {
		if p.ID == "" || strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("every place needs an id and a title: %w", types.ErrValidation)
		}
		if !p.Kind.Valid() {
			return fmt.Errorf("unknown place kind %q: %w", p.Kind, types.ErrValidation)
		}
		k := keyOf(p)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("place %s/%s is listed twice: %w", p.Kind, p.ID, types.ErrValidation)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func emptyItinerary(totalDays int) types.Itinerary {
	if totalDays < 1 {
		totalDays = 1
	}
	it := make(types.Itinerary, totalDays)
	for i := range it {
		it[i] = types.DayBucket{DayIndex: i, Places: []types.PlaceRef{}}
	}
	return it
}

// Allocate spreads places evenly over totalDays buckets, keeping their order.
// Each bucket gets ceil(N/totalDays) places until the list runs out, so trailing
// days may stay empty when there are fewer places than days.
func Allocate(places []types.PlaceRef, totalDays int) types.Itinerary {
	it := emptyItinerary(totalDays)
	if len(places) == 0 {
		return it
	}
	days := len(it)
	perDay := (len(places) + days - 1) / days
	for i, p := range places {
		day := min(i/perDay, days-1)
		it[day].Places = append(it[day].Places, p)
	}
	return it
}

// AllocateExplicit places each item at its caller-chosen day, ordered by OrderIndex.
func AllocateExplicit(placements []types.Placement, totalDays int) (types.Itinerary, error) {
	it := emptyItinerary(totalDays)
	sorted := make([]types.Placement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DayIndex != sorted[j].DayIndex {
			return sorted[i].DayIndex < sorted[j].DayIndex
		}
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})

	seen := make(map[placeKey]struct{}, len(sorted))
	for _, pl := range sorted {
		if pl.DayIndex < 0 || pl.DayIndex >= len(it) {
			return nil, fmt.Errorf("day index %d outside trip of %d days: %w", pl.DayIndex, len(it), types.ErrValidation)
		}
		if pl.OrderIndex < 1 {
			return nil, fmt.Errorf("order index must start at 1: %w", types.ErrValidation)
		}
		k := keyOf(pl.Place)
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("place %s/%s is placed twice: %w", pl.Place.Kind, pl.Place.ID, types.ErrValidation)
		}
		seen[k] = struct{}{}
		it[pl.DayIndex].Places = append(it[pl.DayIndex].Places, pl.Place)
	}
	return it, nil
}

func placeInput(p types.PlaceRef, day, order int) types.DiaryPlaceInput {
	in := types.DiaryPlaceInput{Day: day, OrderIndex: order, PlaceName: p.Title}
	id := p.ID
	switch p.Kind {
	case types.PlaceKindRestaurant:
		in.PoiID = &id
	case types.PlaceKindFood:
		in.FoodID = &id
	}
	return in
}

// Rows flattens an itinerary into storage rows with 1-based day and order numbers.
func Rows(it types.Itinerary) []types.DiaryPlaceInput {
	var rows []types.DiaryPlaceInput
	for _, b := range it {
		for i, p := range b.Places {
			rows = append(rows, placeInput(p, b.DayIndex+1, i+1))
		}
	}
	return rows
}

// ExplicitRows keeps the caller's order indexes as they are.
func ExplicitRows(placements []types.Placement) []types.DiaryPlaceInput {
	rows := make([]types.DiaryPlaceInput, 0, len(placements))
	for _, pl := range placements {
		rows = append(rows, placeInput(pl.Place, pl.DayIndex+1, pl.OrderIndex))
	}
	return rows
}
