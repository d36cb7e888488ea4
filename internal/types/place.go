package types

import (
	"database/sql/driver"
	"fmt"
)

// PlaceKind distinguishes tourism-API restaurants from catalogue foods.
type PlaceKind string

const (
	PlaceKindRestaurant PlaceKind = "restaurant"
	PlaceKindFood       PlaceKind = "food"
)

func (k PlaceKind) Valid() bool {
	return k == PlaceKindRestaurant || k == PlaceKindFood
}

// Scan implements the sql.Scanner interface for PlaceKind.
func (k *PlaceKind) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan PlaceKind: expected string or []byte, got %T", value)
		}
		strVal = string(bytesVal)
	}
	if !PlaceKind(strVal).Valid() {
		return fmt.Errorf("unknown PlaceKind value: %s", strVal)
	}
	*k = PlaceKind(strVal)
	return nil
}

// Value implements the driver.Valuer interface for PlaceKind.
func (k PlaceKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid PlaceKind value: %s", k)
	}
	return string(k), nil
}

// Coordinates are WGS84 degrees. Only restaurants carry them.
type Coordinates struct {
	Longitude float64 `json:"longitude" example:"126.9780"`
	Latitude  float64 `json:"latitude" example:"37.5665"`
}

// PlaceRef is the normalized shape of any liked or planned item.
type PlaceRef struct {
	ID           string       `json:"id" example:"2871024"`
	Kind         PlaceKind    `json:"kind" example:"restaurant"`
	Title        string       `json:"title" example:"춘천 닭갈비"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	ImageURL     *string      `json:"image_url,omitempty"`
	LocationText *string      `json:"location_text,omitempty"`
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
