// Package currency expresses canonical record prices in the base currency.
package currency

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalognorm/internal/record"
	"catalognorm/internal/schema"
)

// pricePlaces is the number of decimals kept after conversion.
const pricePlaces = 2

// ConversionFallback documents a record whose price could not be converted.
// The record is still produced, with a null price and its original currency.
type ConversionFallback struct {
	ObjectID string `json:"objectID"`
	Currency string `json:"currency"`
	Reason   string `json:"reason"`
}

// Normalizer converts prices to the base currency with at most one rate
// lookup per record.
type Normalizer struct {
	rates RateProvider
	log   *zap.Logger
}

func NewNormalizer(rates RateProvider, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{rates: rates, log: log.Named("currency")}
}

// Normalize returns rec with its price in the base currency.
//
// On a failed lookup the price is nulled and the currency kept, and the
// returned fallback is non-nil. The only error returned is cancellation of
// ctx, in which case no record is produced.
func (n *Normalizer) Normalize(ctx context.Context, rec record.CanonicalRecord) (record.CanonicalRecord, *ConversionFallback, error) {
	code := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if code == "" || schema.IsBase(code) {
		rec.Currency = ""
		return rec, nil, nil
	}
	rec.Currency = code
	if !rec.Price.Valid {
		return rec, nil, nil
	}

	rate, err := n.rates.Rate(ctx, code, schema.BaseCurrency)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return record.CanonicalRecord{}, nil, ctxErr
		}
		n.log.Warn("currency conversion failed; price nulled",
			zap.String("objectID", rec.ObjectID),
			zap.String("currency", rec.Currency),
			zap.Error(err))
		rec.Price = record.Null[float64]()
		return rec, &ConversionFallback{ObjectID: rec.ObjectID, Currency: rec.Currency, Reason: err.Error()}, nil
	}

	rec.Price = record.Of(Convert(rec.Price.Value, rate))
	rec.Currency = ""
	return rec, nil, nil
}

// Convert multiplies price by rate and rounds half away from zero to two
// decimal places.
func Convert(price, rate float64) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(rate)).
		Round(pricePlaces).
		InexactFloat64()
}
