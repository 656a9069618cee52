package pipeline

import (
	"context"
	"errors"

	"catalognorm/internal/enrich"
	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/record"
	"catalognorm/internal/schema"
	"catalognorm/internal/upstream"
)

// Kind classifies a hard failure.
type Kind string

const (
	KindService           Kind = "service"
	KindRefusal           Kind = "refusal"
	KindSchemaViolation   Kind = "schema_violation"
	KindEnrichmentLookup  Kind = "enrichment_lookup"
	KindMissingIdentifier Kind = "missing_identifier"
	KindCanceled          Kind = "canceled"
	KindInternal          Kind = "internal"
)

// Failure is the report emitted instead of a record.
type Failure struct {
	ObjectID string `json:"objectID,omitempty"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
}

// KindOf classifies err. Cancellation wins over whatever error the
// interrupted call surfaced.
func KindOf(err error) Kind {
	var (
		refusal *llmclient.RefusalError
		schemaE *schema.SchemaViolationError
		lookup  *enrich.EnrichmentLookupError
		service *upstream.ServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, record.ErrMissingIdentifier), errors.Is(err, record.ErrInvalidRecord):
		return KindMissingIdentifier
	case errors.As(err, &refusal):
		return KindRefusal
	case errors.As(err, &lookup):
		return KindEnrichmentLookup
	case errors.As(err, &schemaE):
		return KindSchemaViolation
	case errors.As(err, &service):
		return KindService
	default:
		return KindInternal
	}
}

// FailureFrom builds the report for err, carrying the identifier of the
// record that failed when one was read.
func FailureFrom(err error) Failure {
	f := Failure{Kind: KindOf(err), Message: err.Error()}
	var re *RecordError
	if errors.As(err, &re) {
		f.ObjectID = re.ObjectID
	}
	return f
}
