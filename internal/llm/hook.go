package llm

import (
	"context"
	"encoding/json"

	llmclient "catalognorm/internal/llm/client"
)

// PromptHook defines callbacks around completion requests.
type PromptHook interface {
	Before(ctx context.Context, stage string, req llmclient.Request)
	After(ctx context.Context, stage string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}

// WithPromptHook attaches a PromptHook to the context.
func WithPromptHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if h, ok := ctx.Value(ctxKeyHook{}).(PromptHook); ok {
		return h
	}
	return nil
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateJSON.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, req llmclient.Request) (json.RawMessage, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, StageFrom(ctx), req)
	}
	raw, err := h.next.GenerateJSON(ctx, req)
	if hook != nil {
		hook.After(ctx, StageFrom(ctx), raw, err)
	}
	return raw, err
}
