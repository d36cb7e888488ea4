package types

// LikeState is what a like button renders: whether the caller likes the item and its total.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type LikedRestaurant struct {
	Place    PlaceRef
	AreaCode string
}

// LikedFood carries the season months so the collector can filter in-season items.
type LikedFood struct {
	Place      PlaceRef
	Months     []int32
	RegionCode *int
}

func (f LikedFood) InSeason(month int) bool {
	for _, m := range f.Months {
		if int(m) == month {
			return true
		}
	}
	return false
}

// LikedItemsFilter narrows the merged likes list. Month 0 means the current month.
type LikedItemsFilter struct {
	Keyword string
	Kind    PlaceKind
	// SeasonalOnly keeps in-season foods and the restaurants named after one.
	SeasonalOnly bool
	// LocalOnly keeps regional foods and the restaurants in their regions.
	LocalOnly bool
	Month     int
}

type LikedItemsResponse struct {
	Items []PlaceRef `json:"items"`
	Total int        `json:"total"`
}
