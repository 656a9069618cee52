package llmclient

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"catalognorm/internal/upstream"
)

// DefaultOpenAIURL is the chat completions endpoint.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIClient calls the Chat Completions API with a json_schema response
// format. Any OpenAI-compatible endpoint works through BaseURL.
type OpenAIClient struct {
	http  *resty.Client
	model string

	rlMu      sync.RWMutex
	rlLast    RateLimitHeaders
	rlHasLast bool
}

// OpenAIOptions configures NewOpenAIClient.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultOpenAIURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		http: upstream.NewClient(upstream.Options{
			BaseURL: base,
			Timeout: timeout,
			Token:   opts.APIKey,
		}).SetHeader("Content-Type", "application/json"),
		model: opts.Model,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.rlMu.RLock()
	defer c.rlMu.RUnlock()
	return c.rlLast, c.rlHasLast
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []chatMessage      `json:"messages"`
	ResponseFormat chatResponseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// GenerateJSON sends the system instruction and the serialized input record
// and returns the message content.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: string(req.Input)},
		},
		ResponseFormat: chatResponseFormat{Type: "json_object"},
	}
	if req.Schema.Schema != nil {
		body.ResponseFormat = chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &chatJSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Schema,
				Strict: req.Schema.Strict,
			},
		}
	}

	var out chatResponse
	var apiErr chatError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if resp != nil {
		c.captureRateLimitHeaders(resp)
	}
	if err := upstream.Check("openai", resp, err); err != nil {
		if se, ok := err.(*upstream.ServiceError); ok && apiErr.Error.Message != "" {
			se.Message = apiErr.Error.Message
		}
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	msg := out.Choices[0].Message
	if msg.Refusal != nil && *msg.Refusal != "" {
		return nil, &RefusalError{Provider: "openai", Reason: *msg.Refusal}
	}
	if msg.Content == nil || strings.TrimSpace(*msg.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return payload(*msg.Content), nil
}

func (c *OpenAIClient) captureRateLimitHeaders(resp *resty.Response) {
	parsed, ok := parseRateLimitHeaders(resp.Header())
	if !ok {
		return
	}
	c.rlMu.Lock()
	c.rlLast = parsed
	c.rlHasLast = true
	c.rlMu.Unlock()
}
