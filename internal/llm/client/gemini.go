package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	genai "google.golang.org/genai"

	"catalognorm/internal/upstream"
)

// GeminiClient is a thin wrapper around the official genai client.
// Cross-cutting concerns (rate limiting, retries, logging, hooks) are applied
// via middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON sends the input record as the user turn, the instruction as
// the system instruction, and constrains output with the response schema.
func (g *GeminiClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Schema.Schema != nil {
		cfg.ResponseJsonSchema = req.Schema.Schema
	}
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: string(req.Input)}}}},
		cfg,
	)
	if err != nil {
		return nil, geminiError(err)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &RefusalError{Provider: "gemini", Reason: firstNonEmpty(fb.BlockReasonMessage, string(fb.BlockReason))}
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return nil, &RefusalError{Provider: "gemini", Reason: firstNonEmpty(cand.FinishMessage, string(cand.FinishReason))}
	}
	if cand.Content == nil {
		return nil, ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return nil, ErrEmptyResponse
	}
	return payload(b.String()), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &upstream.ServiceError{Service: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &upstream.ServiceError{Service: "gemini", StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return &upstream.ServiceError{Service: "gemini", Err: err}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
