package types

import (
	"strconv"

	"github.com/google/uuid"
)

// RestaurantContentTypeID is the tourism-API content type for restaurants.
const RestaurantContentTypeID = "39"

// TourItem mirrors the item objects of the tourism content API.
// Numbers arrive as strings, so they are kept as strings here.
type TourItem struct {
	ContentID     string `json:"contentid"`
	ContentTypeID string `json:"contenttypeid"`
	Title         string `json:"title"`
	Addr1         string `json:"addr1,omitempty"`
	Addr2         string `json:"addr2,omitempty"`
	AreaCode      string `json:"areacode,omitempty"`
	SigunguCode   string `json:"sigungucode,omitempty"`
	FirstImage    string `json:"firstimage,omitempty"`
	FirstImage2   string `json:"firstimage2,omitempty"`
	MapX          string `json:"mapx,omitempty"`
	MapY          string `json:"mapy,omitempty"`
	Tel           string `json:"tel,omitempty"`
	Overview      string `json:"overview,omitempty"`
	Homepage      string `json:"homepage,omitempty"`
}

// Coordinates parses mapx/mapy. Missing or malformed values yield nil.
func (t TourItem) Coordinates() *Coordinates {
	x, errX := strconv.ParseFloat(t.MapX, 64)
	y, errY := strconv.ParseFloat(t.MapY, 64)
	if errX != nil || errY != nil || (x == 0 && y == 0) {
		return nil
	}
	return &Coordinates{Longitude: x, Latitude: y}
}

// PlaceRef converts a restaurant item into the shared place shape.
func (t TourItem) PlaceRef() PlaceRef {
	return PlaceRef{
		ID:           t.ContentID,
		Kind:         PlaceKindRestaurant,
		Title:        t.Title,
		Coordinates:  t.Coordinates(),
		ImageURL:     StringPtr(t.FirstImage),
		LocationText: StringPtr(t.Addr1),
	}
}

// TourListParams are the filters of a list or keyword query.
type TourListParams struct {
	AreaCode      string
	SigunguCode   string
	ContentTypeID string
	Keyword       string
	Page          int
	Size          int
}

type TourPage struct {
	Items      []TourItem `json:"items"`
	PageNo     int        `json:"page_no"`
	NumOfRows  int        `json:"num_of_rows"`
	TotalCount int        `json:"total_count"`
	// Stale is set when the page was served from the local copy after an upstream failure.
	Stale bool `json:"stale"`
}

type AreaCode struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// AreaCodes are the province level codes of the tourism API.
var AreaCodes = []AreaCode{
	{1, "서울"}, {2, "인천"}, {3, "대전"}, {4, "대구"}, {5, "광주"}, {6, "부산"},
	{7, "울산"}, {8, "세종"}, {31, "경기"}, {32, "강원"}, {33, "충북"}, {34, "충남"},
	{35, "경북"}, {36, "경남"}, {37, "전북"}, {38, "전남"}, {39, "제주"},
}

// AreaName returns the short name of an area code, or "" when unknown.
func AreaName(code int) string {
	for _, a := range AreaCodes {
		if a.Code == code {
			return a.Name
		}
	}
	return ""
}

type HotRestaurant struct {
	TourItem
	LikeCount int `json:"like_count"`
}

type HotRestaurantsPage struct {
	Items      []HotRestaurant `json:"items"`
	PageNo     int             `json:"page_no"`
	TotalCount int             `json:"total_count"`
	Stale      bool            `json:"stale"`
}

type SeasonalFood struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	RegionCode  *int      `json:"region_code,omitempty"`
	Months      []int32   `json:"months"`
	Aliases     []string  `json:"aliases,omitempty"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	LikeCount   int       `json:"like_count"`
}

// InSeason reports whether month (1-12) is one of the food's months.
func (f SeasonalFood) InSeason(month int) bool {
	for _, m := range f.Months {
		if int(m) == month {
			return true
		}
	}
	return false
}

// SearchPlace is a keyword search hit from the maps API.
type SearchPlace struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	RoadAddress string  `json:"road_address,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Category    string  `json:"category,omitempty"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	URL         string  `json:"url,omitempty"`
}
