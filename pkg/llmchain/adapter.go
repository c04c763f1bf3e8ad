package llmchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPAdapter implements Adapter against an OpenAI-chat-completions-shaped
// endpoint, which covers Groq, OpenAI, and most Claude-compatible gateways
// with a thin per-provider auth/model difference. Each real provider is
// constructed via the New*Adapter helpers below.
type HTTPAdapter struct {
	tag          ProviderTag
	baseURL      string
	defaultModel string
	authHeader   func(apiKey string) (name, value string)
	apiKey       string
	client       *http.Client
}

func (a *HTTPAdapter) Tag() ProviderTag      { return a.tag }
func (a *HTTPAdapter) DefaultModel() string  { return a.defaultModel }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Call issues a single chat-completion request and returns the first
// choice's message content.
func (a *HTTPAdapter) Call(ctx context.Context, opts CallOptions) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: opts.Prompt})

	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llmchain: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmchain: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.authHeader != nil {
		name, value := a.authHeader(a.apiKey)
		req.Header.Set(name, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llmchain: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: a.tag, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", ErrProviderAuth, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llmchain: %s returned status %d: %s", a.tag, resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llmchain: unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llmchain: %s error: %s", a.tag, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llmchain: %s returned no choices", a.tag)
	}
	return parsed.Choices[0].Message.Content, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		return time.Until(when)
	}
	return 0
}

func bearerAuth(apiKey string) (string, string) {
	return "Authorization", "Bearer " + apiKey
}

// NewGroqAdapter builds the Groq chat-completions adapter.
func NewGroqAdapter(apiKey string) *HTTPAdapter {
	return &HTTPAdapter{
		tag:          Groq,
		baseURL:      "https://api.groq.com/openai/v1/chat/completions",
		defaultModel: "llama-3.3-70b-versatile",
		authHeader:   bearerAuth,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// NewOpenAIAdapter builds the OpenAI chat-completions adapter.
func NewOpenAIAdapter(apiKey string) *HTTPAdapter {
	return &HTTPAdapter{
		tag:          OpenAI,
		baseURL:      "https://api.openai.com/v1/chat/completions",
		defaultModel: "gpt-4o-mini",
		authHeader:   bearerAuth,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// NewMinimaxAdapter builds the Minimax chat-completions-compatible adapter.
func NewMinimaxAdapter(apiKey string) *HTTPAdapter {
	return &HTTPAdapter{
		tag:          Minimax,
		baseURL:      "https://api.minimax.chat/v1/text/chatcompletion_v2",
		defaultModel: "abab6.5s-chat",
		authHeader:   bearerAuth,
		apiKey:       apiKey,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// ClaudeAdapter is the Claude messages-API adapter. It uses a different
// auth header and response envelope from the chat-completions shape, so it
// has its own Call method instead of reusing HTTPAdapter.Call.
type ClaudeAdapter struct {
	apiKey       string
	defaultModel string
	client       *http.Client
}

func NewClaudeAdapter(apiKey string) *ClaudeAdapter {
	return &ClaudeAdapter{apiKey: apiKey, defaultModel: "claude-3-5-sonnet-latest", client: &http.Client{Timeout: defaultTimeout}}
}

func (a *ClaudeAdapter) Tag() ProviderTag     { return Claude }
func (a *ClaudeAdapter) DefaultModel() string { return a.defaultModel }

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []chatMessage   `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *ClaudeAdapter) Call(ctx context.Context, opts CallOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = a.defaultModel
	}
	body, err := json.Marshal(claudeRequest{
		Model:       model,
		System:      opts.System,
		Messages:    []chatMessage{{Role: "user", Content: opts.Prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llmchain: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmchain: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llmchain: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: Claude, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: status %d", ErrProviderAuth, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llmchain: claude returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed claudeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llmchain: unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llmchain: claude error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("llmchain: claude returned no content blocks")
	}
	return parsed.Content[0].Text, nil
}

// NewOllamaAdapter builds the local-model-server adapter; baseURL defaults
// to the conventional local Ollama port when empty.
func NewOllamaAdapter(baseURL string) *HTTPAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1/chat/completions"
	}
	return &HTTPAdapter{
		tag:          Ollama,
		baseURL:      baseURL,
		defaultModel: "llama3.1",
		client:       &http.Client{Timeout: defaultTimeout},
	}
}
