package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

const defaultModel = "gemini-2.0-flash"

// Prompt is one generation request: a system instruction, prior turns and the new user turn.
type Prompt struct {
	System      string
	History     []types.ChatMessage
	User        string
	Temperature float32
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

type AIClient struct {
	client *genai.Client
	model  string
}

func NewAIClient(ctx context.Context, apiKey, model string) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if apiKey == "" {
		err := fmt.Errorf("llm api key is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, err
	}
	span.SetStatus(codes.Ok, "AI client created successfully")
	return &AIClient{client: client, model: model}, nil
}

// toContents maps chat history to model turns. The assistant role is called
// "model" on the wire; empty turns are skipped.
func toContents(history []types.ChatMessage, user string) []*genai.Content {
	out := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		role := "user"
		if m.Role == types.ChatRoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}})
	}
	return append(out, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: user}}})
}

func (ai *AIClient) Generate(ctx context.Context, p Prompt) (string, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "Generate", trace.WithAttributes(
		attribute.Int("prompt.length", len(p.User)),
		attribute.Int("history.turns", len(p.History)),
		attribute.String("model", ai.model),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(p.Temperature),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: p.System}}},
	}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, toContents(p.History, p.User), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return "", fmt.Errorf("failed to generate content: %w: %w", types.ErrUpstream, err)
	}
	text := result.Text()
	span.SetAttributes(attribute.Int("response.length", len(text)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return text, nil
}

// Unavailable stands in when no model is configured. Recommendations fail with an
// upstream error and enhancements fall back to their fixed sentences.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Prompt) (string, error) {
	return "", fmt.Errorf("no language model configured: %w", types.ErrUpstream)
}
