package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Normalizer maps free-text destination input onto a known destination name
// using Gemini. It is an optional enhancement: callers must treat errors as
// "no suggestion" and fall back to the literal input.
type Normalizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewNormalizer initializes a new Gemini-backed normalizer.
// apiKey should be provided from environment variables.
func NewNormalizer(ctx context.Context, apiKey string) (*Normalizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps latency and cost low for a per-keystroke helper.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.1)

	return &Normalizer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (n *Normalizer) Close() {
	n.client.Close()
}

type normalizeResult struct {
	Destination string  `json:"destination"`
	Confidence  float64 `json:"confidence"`
}

// Normalize returns the known destination the input most likely refers to, or
// an empty string when the model is not confident enough.
func (n *Normalizer) Normalize(ctx context.Context, input string, known []string) (string, error) {
	prompt := fmt.Sprintf(`You normalize destination names for a campus ride-sharing app.
Known destinations:
%s

Map the user input to exactly one known destination. If none fits, use "".

Output JSON schema:
{"destination": "string", "confidence": number between 0 and 1}

User input: %s`, strings.Join(known, "\n"), input)

	resp, err := n.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	cleanJSON := cleanJSONString(responseText.String())

	var result normalizeResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	if result.Confidence < 0.6 {
		return "", nil
	}
	return result.Destination, nil
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
