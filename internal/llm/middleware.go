// Package llm decorates completion clients with cross-cutting concerns:
// rate limiting, retries, logging, hooks and usage accounting.
package llm

import (
	"context"

	llmclient "catalognorm/internal/llm/client"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns.
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

type ctxKeyStage struct{}
type ctxKeyObjectID struct{}

// WithStage tags the context with the pipeline stage issuing the call.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage stored in the context.
func StageFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyStage{}).(string); ok {
		return v
	}
	return "unknown"
}

// WithObjectID tags the context with the record being processed.
func WithObjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyObjectID{}, id)
}

// ObjectIDFrom returns the record identifier stored in the context.
func ObjectIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyObjectID{}).(string); ok {
		return v
	}
	return ""
}
