package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// Date is a calendar date. It reads "2006-01-02" or RFC3339 and writes "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, ErrValidation)
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TripDraft is a trip being planned, before it is saved as a diary.
type TripDraft struct {
	Title           string     `json:"title" example:"강원도 먹방 여행"`
	StartDate       Date       `json:"start_date" swaggertype:"string" example:"2025-05-01"`
	EndDate         Date       `json:"end_date" swaggertype:"string" example:"2025-05-03"`
	CandidatePlaces []PlaceRef `json:"candidate_places"`
}

// DayBucket holds the ordered places of one trip day. DayIndex is 0-based.
type DayBucket struct {
	DayIndex int        `json:"day_index"`
	Places   []PlaceRef `json:"places"`
}

// Itinerary is indexed by DayIndex and has exactly totalDays buckets.
type Itinerary []DayBucket

// Placement pins a place to a day and a 1-based position within it.
type Placement struct {
	DayIndex   int      `json:"day_index"`
	OrderIndex int      `json:"order_index"`
	Place      PlaceRef `json:"place"`
}

// Move describes relocating one place between or within day buckets.
type Move struct {
	SourceDay   int `json:"source_day"`
	SourceIndex int `json:"source_index"`
	DestDay     int `json:"dest_day"`
	DestIndex   int `json:"dest_index"`
}

type PlanResponse struct {
	TotalDays int       `json:"total_days"`
	Itinerary Itinerary `json:"itinerary"`
}

type MoveDraftRequest struct {
	Itinerary Itinerary `json:"itinerary"`
	Move
}

type Diary struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Title         string    `json:"title"`
	StartDate     Date      `json:"start_date" swaggertype:"string" example:"2025-05-01"`
	EndDate       Date      `json:"end_date" swaggertype:"string" example:"2025-05-03"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	RegionName    *string   `json:"region_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StampData is stored as JSONB on diary_places.
type StampData struct {
	ImageURL    string `json:"image_url,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DiaryPlace struct {
	ID         uuid.UUID  `json:"id"`
	DiaryID    uuid.UUID  `json:"diary_id"`
	Day        int        `json:"day"`
	OrderIndex int        `json:"order_index"`
	PlaceName  string     `json:"place_name"`
	PoiID      *string    `json:"poi_id,omitempty"`
	FoodID     *string    `json:"food_id,omitempty"`
	Visited    bool       `json:"visited"`
	StampData  *StampData `json:"stamp_data,omitempty"`
}

// Stamped reports whether the place counts towards badge completion.
func (p DiaryPlace) Stamped() bool {
	return p.Visited && p.StampData != nil && p.StampData.ImageURL != ""
}

// DiaryPlaceInput is one row to insert. Day and OrderIndex are 1-based.
type DiaryPlaceInput struct {
	Day        int
	OrderIndex int
	PlaceName  string
	PoiID      *string
	FoodID     *string
}

type DiaryDay struct {
	Day    int          `json:"day"`
	Places []DiaryPlace `json:"places"`
}

type DiaryWithPlaces struct {
	Diary
	Days       []DiaryDay `json:"days"`
	Completed  bool       `json:"completed"`
	RegionName string     `json:"region"`
}

type CreateDiaryRequest struct {
	Title      string      `json:"title" example:"강원도 먹방 여행"`
	StartDate  string      `json:"start_date" example:"2025-05-01"`
	EndDate    string      `json:"end_date" example:"2025-05-03"`
	Places     []PlaceRef  `json:"places"`
	Placements []Placement `json:"placements,omitempty"`
}

type SetCoverRequest struct {
	CoverImageURL string `json:"cover_image_url"`
}

type StampInput struct {
	Title       string
	Description string
	Photo       []byte
}

type StampResult struct {
	Place       DiaryPlace `json:"place"`
	BadgeEarned bool       `json:"badge_earned"`
	RegionName  *string    `json:"region_name,omitempty"`
}

type Badge struct {
	DiaryID       uuid.UUID `json:"diary_id"`
	Title         string    `json:"title"`
	RegionName    string    `json:"region_name"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	StartDate     Date      `json:"start_date" swaggertype:"string"`
	EndDate       Date      `json:"end_date" swaggertype:"string"`
}
