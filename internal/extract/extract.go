// Package extract maps an arbitrary upstream record onto the canonical
// schema using a completion service constrained to that schema.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"catalognorm/internal/llm"
	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/record"
	"catalognorm/internal/schema"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Extractor issues one completion call per record and validates the result.
// It never retries; callers wrap it with their own policy.
type Extractor struct {
	client      llmclient.LLMClient
	model       string
	instruction string
	format      llmclient.ResponseSchema
	log         *zap.Logger
}

type Option func(*Extractor)

// WithInstruction overrides the system instruction.
func WithInstruction(s string) Option {
	return func(e *Extractor) {
		if strings.TrimSpace(s) != "" {
			e.instruction = s
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

func New(client llmclient.LLMClient, model string, opts ...Option) *Extractor {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	e := &Extractor{
		client:      client,
		model:       model,
		instruction: schema.Instruction,
		format: llmclient.ResponseSchema{
			Name:   schema.ResponseName,
			Schema: schema.Extraction(),
			Strict: true,
		},
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Model returns the configured model selector.
func (e *Extractor) Model() string { return e.model }

// Extract turns raw into a schema-conformant extraction.
//
// Errors are *upstream.ServiceError, *llmclient.RefusalError or
// *schema.SchemaViolationError, wrapped with the record identifier.
func (e *Extractor) Extract(ctx context.Context, raw record.RawRecord) (record.Extraction, error) {
	id, _ := raw.ObjectID()
	ctx = llm.WithObjectID(llm.WithStage(ctx, "extract"), id)

	out, err := e.client.GenerateJSON(ctx, llmclient.Request{
		Model:  e.model,
		System: e.instruction,
		Input:  []byte(raw),
		Schema: e.format,
	})
	if err != nil {
		if errors.Is(err, llmclient.ErrEmptyResponse) {
			err = &schema.SchemaViolationError{Schema: "extraction", Err: err}
		}
		return record.Extraction{}, fmt.Errorf("extract %s: %w", id, err)
	}

	ext, err := schema.ParseExtraction(out)
	if err != nil {
		e.log.Warn("completion output rejected", zap.String("objectID", id), zap.Error(err))
		return record.Extraction{}, fmt.Errorf("extract %s: %w", id, err)
	}
	if c, ok := ext.Color.Get(); ok {
		ext.Color = record.Of(strings.ToLower(c))
	}
	return ext, nil
}
