// Package pipeline runs the two record transforms end to end and turns their
// errors into failure reports.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"catalognorm/internal/currency"
	"catalognorm/internal/record"
)

// Outcome is a produced canonical record. Fallback is set when the price
// could not be converted and was nulled.
type Outcome struct {
	Record   record.CanonicalRecord       `json:"record"`
	Fallback *currency.ConversionFallback `json:"fallback,omitempty"`
}

// Transformer turns one raw record into one canonical record.
type Transformer interface {
	Run(ctx context.Context, raw record.RawRecord) (Outcome, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, raw record.RawRecord) (Outcome, error)

func (f TransformerFunc) Run(ctx context.Context, raw record.RawRecord) (Outcome, error) {
	return f(ctx, raw)
}

// RecordError ties a pipeline error to the record and stage it came from.
type RecordError struct {
	ObjectID string
	Stage    string
	Err      error
}

func (e *RecordError) Error() string {
	if e.ObjectID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ObjectID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func fail(id, stage string, err error) error {
	return &RecordError{ObjectID: id, Stage: stage, Err: err}
}

// WithTimeout bounds every Run of t by d. A non-positive d returns t.
func WithTimeout(t Transformer, d time.Duration) Transformer {
	if d <= 0 {
		return t
	}
	return TransformerFunc(func(ctx context.Context, raw record.RawRecord) (Outcome, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return t.Run(ctx, raw)
	})
}
