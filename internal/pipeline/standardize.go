package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"catalognorm/internal/currency"
	"catalognorm/internal/extract"
	"catalognorm/internal/record"
	"catalognorm/internal/schema"
)

// Standardize extracts a canonical record from arbitrary product JSON and
// converts its price to the base currency.
type Standardize struct {
	Extractor  *extract.Extractor
	Normalizer *currency.Normalizer
	Log        *zap.Logger
}

func (p *Standardize) Run(ctx context.Context, raw record.RawRecord) (Outcome, error) {
	start := time.Now()
	id, err := raw.ObjectID()
	if err != nil {
		return Outcome{}, fail("", "standardize", err)
	}

	ext, err := p.Extractor.Extract(ctx, raw)
	if err != nil {
		return Outcome{}, fail(id, "extract", err)
	}

	rec, fallback, err := p.Normalizer.Normalize(ctx, ext.Canonical(id))
	if err != nil {
		return Outcome{}, fail(id, "currency", err)
	}
	if err := schema.CheckCanonical(rec); err != nil {
		return Outcome{}, fail(id, "validate", err)
	}

	logger(p.Log).Debug("record standardized",
		zap.String("objectID", id),
		zap.Bool("flagged", fallback != nil),
		zap.Duration("took", time.Since(start)))
	return Outcome{Record: rec, Fallback: fallback}, nil
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
