package llmclient

import (
	"context"
	"encoding/json"

	"catalognorm/internal/util/jsonutil"
)

// ResponseSchema constrains the completion to a JSON Schema.
type ResponseSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

// Request is a single structured completion call.
type Request struct {
	Model  string
	System string
	// Input is sent verbatim as the user message.
	Input  json.RawMessage
	Schema ResponseSchema
}

// LLMClient defines the interface for completion providers.
//
// GenerateJSON returns the model's JSON text. Upstream failures are
// *upstream.ServiceError and explicit refusals are *RefusalError.
type LLMClient interface {
	Name() string
	Close() error
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// payload unwraps fenced or string-encoded JSON. Text that holds no object is
// passed through so schema validation can reject it.
func payload(text string) json.RawMessage {
	if p, err := jsonutil.Payload(text); err == nil {
		return p
	}
	return json.RawMessage(text)
}
