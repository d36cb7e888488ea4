package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface for Gender.
func (g *Gender) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan Gender: expected string or []byte, got %T", value)
		}
		strVal = string(bytesVal)
	}
	if !Gender(strVal).Valid() {
		return fmt.Errorf("unknown Gender value: %s", strVal)
	}
	*g = Gender(strVal)
	return nil
}

// Value implements the driver.Valuer interface for Gender.
func (g Gender) Value() (driver.Value, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid Gender value: %s", g)
	}
	return string(g), nil
}

type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      *string   `json:"name,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Gender    *Gender   `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name" example:"하루"`
	Age    int    `json:"age" example:"29"`
	Gender Gender `json:"gender" example:"female"`
}

// Validate checks the profile form rules before anything is written.
func (r UpdateProfileRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if r.Age < 0 || r.Age > 120 {
		return fmt.Errorf("age must be between 0 and 120: %w", ErrValidation)
	}
	if !r.Gender.Valid() {
		return fmt.Errorf("gender must be one of male, female, other: %w", ErrValidation)
	}
	return nil
}
