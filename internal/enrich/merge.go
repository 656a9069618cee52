// Package enrich merges a working inventory record with product details and
// dynamic pricing fetched for the same identifier.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalognorm/internal/record"
	"catalognorm/internal/schema"
)

// Lookup names one of the two enrichment sources.
type Lookup string

const (
	LookupProduct Lookup = "product"
	LookupPricing Lookup = "pricing"
)

// EnrichmentLookupError reports which lookup failed for which record.
type EnrichmentLookupError struct {
	Lookup   Lookup
	ObjectID string
	Err      error
}

func (e *EnrichmentLookupError) Error() string {
	return fmt.Sprintf("%s lookup for %s failed: %v", e.Lookup, e.ObjectID, e.Err)
}

func (e *EnrichmentLookupError) Unwrap() error { return e.Err }

// ProductSource returns product attributes keyed by identifier.
type ProductSource interface {
	Product(ctx context.Context, objectID string) (record.Attributes, error)
}

// PricingSource returns the current base-currency price for an identifier.
type PricingSource interface {
	Price(ctx context.Context, objectID string) (float64, error)
}

// Input is the working record handed to the merger.
type Input struct {
	ObjectID   string
	Attributes record.Attributes
	Stock      record.StockTier
}

type Merger struct {
	products ProductSource
	pricing  PricingSource
	log      *zap.Logger
}

func NewMerger(products ProductSource, pricing PricingSource, log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{products: products, pricing: pricing, log: log.Named("enrich")}
}

// Merge fetches product details and pricing concurrently and combines them
// with the working record. Product fields overwrite working fields except
// objectID; price always comes from pricing. Either lookup failing fails the
// whole record.
func (m *Merger) Merge(ctx context.Context, in Input) (record.CanonicalRecord, error) {
	var (
		product record.Attributes
		price   float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := m.products.Product(gctx, in.ObjectID)
		if err != nil {
			return &EnrichmentLookupError{Lookup: LookupProduct, ObjectID: in.ObjectID, Err: err}
		}
		product = p
		return nil
	})
	g.Go(func() error {
		p, err := m.pricing.Price(gctx, in.ObjectID)
		if err != nil {
			return &EnrichmentLookupError{Lookup: LookupPricing, ObjectID: in.ObjectID, Err: err}
		}
		price = p
		return nil
	})
	if err := g.Wait(); err != nil {
		m.log.Warn("enrichment lookup failed", zap.String("objectID", in.ObjectID), zap.Error(err))
		return record.CanonicalRecord{}, err
	}
	return assemble(in, product, price)
}

// skipped lists fields never taken from the working record or product data.
var skipped = map[string]bool{
	record.IdentifierField: true,
	"price":                true,
	"currency":             true,
	"stock":                true,
}

func assemble(in Input, product record.Attributes, price float64) (record.CanonicalRecord, error) {
	merged := record.Attributes{}
	for _, layer := range []record.Attributes{in.Attributes, product} {
		for k, v := range layer {
			if skipped[k] || !schema.IsCanonicalField(k) {
				continue
			}
			merged[k] = v
		}
	}

	var rec record.CanonicalRecord
	b, err := json.Marshal(merged)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, &schema.SchemaViolationError{Schema: "canonical", Err: err}
	}
	rec.ObjectID = in.ObjectID
	rec.Price = record.Of(price)
	rec.Currency = ""
	rec.Stock = in.Stock
	if v, ok := merged["inStock"]; !ok || string(v) == "null" {
		rec.InStock = in.Stock != record.StockOut
	}
	if c, ok := rec.Color.Get(); ok {
		rec.Color = record.Of(strings.ToLower(c))
	}
	if err := schema.CheckCanonical(rec); err != nil {
		return record.CanonicalRecord{}, err
	}
	return rec, nil
}
