package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Response is the envelope for simple success and error messages.
type Response struct {
	Success   bool   `json:"success" example:"false"`
	Message   string `json:"message,omitempty" example:"Operation successful"`
	Error     string `json:"error,omitempty" example:"Resource not found"`
	RequestID string `json:"request_id,omitempty"`
}

// TextSanitizer strips every tag from user or model supplied text.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean returns plain text: tags removed, entities decoded, whitespace trimmed.
func (s *TextSanitizer) Clean(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
