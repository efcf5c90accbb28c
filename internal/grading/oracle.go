package grading

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// Oracle scores a built prompt. A nil result with nil error means the model
// answered but its output was unusable (malformed JSON, empty response);
// a non-nil error means the call itself failed (network, quota, timeout).
// No retries at this layer.
type Oracle interface {
	Score(ctx context.Context, p Prompt) (*RawResult, error)
}

// Unconfigured stands in when no API key is set; every call fails.
type Unconfigured struct{}

func (Unconfigured) Score(context.Context, Prompt) (*RawResult, error) {
	return nil, errors.New("gemini client not initialized")
}

type GeminiOracle struct {
	client *genai.Client
	model  string
}

func NewGeminiOracle(client *genai.Client, model string) *GeminiOracle {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiOracle{client: client, model: model}
}

func (o *GeminiOracle) Score(ctx context.Context, p Prompt) (*RawResult, error) {
	m := o.client.GenerativeModel(o.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	m.ResponseMIMEType = "application/json"

	parts := make([]genai.Part, 0, 1+len(p.Images))
	parts = append(parts, genai.Text(p.Text))
	for _, img := range p.Images {
		parts = append(parts, genai.ImageData("jpeg", img))
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return ParseRawResult(responseText(resp)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// ParseRawResult attempts a single parse of the model's textual output.
// Malformed or empty output yields nil, never an error.
func ParseRawResult(text string) *RawResult {
	cleaned := cleanModelOutput(text)
	if cleaned == "" {
		return nil
	}
	var raw RawResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}
	return &raw
}

// Models frequently fence their JSON in markdown code blocks despite
// instructions not to.
func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
