package llmchain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// visionPrompt instructs the vision-capable model to both categorize the
// photo (one of the four buckets the orchestrator's S-1 stage expects) and
// describe it in a single call.
const visionPrompt = `Classify this image into exactly one category: chemical, chart, diagram, or visual. Then describe it in one or two sentences. Respond as "CATEGORY: <category>\nDESCRIPTION: <description>".`

// ClaudeVisionAdapter implements the orchestrator's ImageAnalyzer interface
// (structurally — this package never imports pkg/orchestrator) against the
// Anthropic messages API's image content block, reusing ClaudeAdapter's
// auth/endpoint shape with an image block spliced into the request.
type ClaudeVisionAdapter struct {
	apiKey string
	model  string
	client *http.Client
}

func NewClaudeVisionAdapter(apiKey string) *ClaudeVisionAdapter {
	return &ClaudeVisionAdapter{apiKey: apiKey, model: "claude-3-5-sonnet-latest", client: &http.Client{Timeout: defaultTimeout}}
}

type visionImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type visionContentBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *visionImageSource `json:"source,omitempty"`
}

type visionMessage struct {
	Role    string               `json:"role"`
	Content []visionContentBlock `json:"content"`
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
}

// AnalyzeImage sends data (raw image bytes, sniffed for its content type)
// to the vision model and parses out the category/description pair.
func (a *ClaudeVisionAdapter) AnalyzeImage(ctx context.Context, data []byte) (category, description string, err error) {
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}

	body, err := json.Marshal(visionRequest{
		Model:     a.model,
		MaxTokens: 256,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionContentBlock{
				{Type: "image", Source: &visionImageSource{Type: "base64", MediaType: mediaType, Data: base64.StdEncoding.EncodeToString(data)}},
				{Type: "text", Text: visionPrompt},
			},
		}},
	})
	if err != nil {
		return "", "", fmt.Errorf("llmchain: marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("llmchain: build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("llmchain: read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("llmchain: vision call returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", "", fmt.Errorf("llmchain: unmarshal vision response: %w", err)
	}
	if parsed.Error != nil {
		return "", "", fmt.Errorf("llmchain: vision error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", "", fmt.Errorf("llmchain: vision call returned no content blocks")
	}

	return parseVisionReply(parsed.Content[0].Text)
}

func parseVisionReply(text string) (category, description string, err error) {
	lines := strings.SplitN(text, "\n", 2)
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "CATEGORY:"):
			category = strings.TrimSpace(strings.TrimPrefix(line, "CATEGORY:"))
		case strings.HasPrefix(line, "DESCRIPTION:"):
			description = strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:"))
		}
	}
	if category == "" {
		return "", "", fmt.Errorf("llmchain: vision reply missing category: %q", text)
	}
	if description == "" {
		description = text
	}
	return category, description, nil
}
