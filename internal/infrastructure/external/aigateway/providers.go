package aigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Provider names as stored in settings.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGoogle     = "google"
	ProviderPerplexity = "perplexity"
)

// Default API endpoints. Overridable for tests.
const (
	openAIBaseURL     = "https://api.openai.com"
	anthropicBaseURL  = "https://api.anthropic.com"
	googleBaseURL     = "https://generativelanguage.googleapis.com"
	perplexityBaseURL = "https://api.perplexity.ai"

	anthropicVersion = "2023-06-01"
)

// provider is one upstream chat API.
type provider interface {
	name() string
	generate(ctx context.Context, apiKey, model, systemPrompt, userPrompt string, opts Options) (string, error)
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ═══════════════════════════════════════════════════════════════════════════
// OpenAI-compatible chat completions (OpenAI, Perplexity)
// ═══════════════════════════════════════════════════════════════════════════

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatClient speaks the OpenAI chat-completions dialect, which Perplexity
// also implements.
type chatClient struct {
	providerName string
	baseURL      string
	path         string
	client       *http.Client
}

func newOpenAIClient(client *http.Client, baseURL string) *chatClient {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &chatClient{providerName: ProviderOpenAI, baseURL: baseURL, path: "/v1/chat/completions", client: client}
}

func newPerplexityClient(client *http.Client, baseURL string) *chatClient {
	if baseURL == "" {
		baseURL = perplexityBaseURL
	}
	return &chatClient{providerName: ProviderPerplexity, baseURL: baseURL, path: "/chat/completions", client: client}
}

func (c *chatClient) name() string { return c.providerName }

func (c *chatClient) generate(ctx context.Context, apiKey, model, systemPrompt, userPrompt string, opts Options) (string, error) {
	var resp chatResponse
	err := postJSON(ctx, c.client, c.baseURL+c.path,
		map[string]string{"Authorization": "Bearer " + apiKey},
		chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Anthropic messages API
// ═══════════════════════════════════════════════════════════════════════════

type anthropicClient struct {
	baseURL string
	client  *http.Client
}

func newAnthropicClient(client *http.Client, baseURL string) *anthropicClient {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &anthropicClient{baseURL: baseURL, client: client}
}

func (c *anthropicClient) name() string { return ProviderAnthropic }

func (c *anthropicClient) generate(ctx context.Context, apiKey, model, systemPrompt, userPrompt string, opts Options) (string, error) {
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	err := postJSON(ctx, c.client, c.baseURL+"/v1/messages",
		map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": anthropicVersion,
		},
		map[string]any{
			"model":      model,
			"max_tokens": opts.MaxTokens,
			"system":     systemPrompt,
			"messages": []chatMessage{
				{Role: "user", Content: userPrompt},
			},
		}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty content in response")
	}
	return resp.Content[0].Text, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Google Gemini generateContent API
// ═══════════════════════════════════════════════════════════════════════════

type googleClient struct {
	baseURL string
	client  *http.Client
}

func newGoogleClient(client *http.Client, baseURL string) *googleClient {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &googleClient{baseURL: baseURL, client: client}
}

func (c *googleClient) name() string { return ProviderGoogle }

func (c *googleClient) generate(ctx context.Context, apiKey, model, systemPrompt, userPrompt string, opts Options) (string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	// The Gemini API carries the key as a query parameter and has no separate
	// system role; the system prompt is prepended to the user text.
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(model), url.QueryEscape(apiKey))

	err := postJSON(ctx, c.client, endpoint, nil,
		map[string]any{
			"contents": []map[string]any{
				{"parts": []map[string]string{
					{"text": systemPrompt + "\n\n" + userPrompt},
				}},
			},
		}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates in response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
