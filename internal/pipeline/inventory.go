package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"catalognorm/internal/enrich"
	"catalognorm/internal/inventory"
	"catalognorm/internal/record"
	"catalognorm/internal/schema"
)

// Inventory classifies warehouse stock and merges product details and
// dynamic pricing into the record.
type Inventory struct {
	Merger *enrich.Merger
	Log    *zap.Logger
}

func (p *Inventory) Run(ctx context.Context, raw record.RawRecord) (Outcome, error) {
	start := time.Now()
	id, err := raw.ObjectID()
	if err != nil {
		return Outcome{}, fail("", "inventory", err)
	}

	attrs, err := record.DecodeAttributes(raw)
	if err != nil {
		return Outcome{}, fail(id, "inventory", err)
	}
	warehouses, err := inventory.Split(attrs)
	if err != nil {
		return Outcome{}, fail(id, "classify", &schema.SchemaViolationError{Schema: inventory.WarehousesField, Err: err})
	}
	tier := inventory.Classify(warehouses)

	rec, err := p.Merger.Merge(ctx, enrich.Input{ObjectID: id, Attributes: attrs, Stock: tier})
	if err != nil {
		return Outcome{}, fail(id, "enrich", err)
	}

	logger(p.Log).Debug("record enriched",
		zap.String("objectID", id),
		zap.String("stock", string(tier)),
		zap.Int("units", inventory.Total(warehouses)),
		zap.Duration("took", time.Since(start)))
	return Outcome{Record: rec}, nil
}
