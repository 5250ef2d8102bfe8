// Package llm wraps the Gemini API for the "code finds candidates, the
// model picks one" pattern used by the template selection flows.
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when the config names no model.
const DefaultModel = "gemini-2.0-flash"

// Client generates text with Gemini.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY)")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// GenerateText sends a prompt and returns the response text, trimmed.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

// StripFences removes markdown code fences from a model response.
// Gemini wraps structured answers in ```json / ```sql / ``` blocks.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, lang := range []string{"json", "sql", "python", "java", ""} {
		s = strings.ReplaceAll(s, "```"+lang, "")
	}
	return strings.TrimSpace(s)
}

// NotFound is the sentinel answer the selection prompts instruct the model
// to give when no candidate matches.
const NotFound = "not_found"

// IsNotFound reports whether a model answer means "no match".
func IsNotFound(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == NotFound || answer == "not found" || answer == ""
}
