package types

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role" example:"user"`
	Content string   `json:"content" example:"매운 음식이 먹고 싶어요"`
}

type RecommendRequest struct {
	Query                   string        `json:"query" example:"비 오는 날 먹기 좋은 음식 추천해줘"`
	PreviousRecommendations []string      `json:"previous_recommendations,omitempty"`
	ConversationHistory     []ChatMessage `json:"conversation_history,omitempty"`
}

type RecommendResponse struct {
	Text string `json:"text"`
}

type EnhanceRequest struct {
	Title               string `json:"title" example:"대게"`
	OriginalDescription string `json:"original_description,omitempty"`
	Location            string `json:"location,omitempty" example:"경북 영덕"`
}

// EnhanceResponse always carries a usable description; Success is false when it is the fallback text.
type EnhanceResponse struct {
	Description string `json:"description"`
	Success     bool   `json:"success"`
}
