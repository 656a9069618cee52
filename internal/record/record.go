// Package record holds the data model shared by both transform pipelines:
// the canonical product record, raw upstream input and inventory types.
package record

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// IdentifierField is the only field read from a raw record outside extraction.
const IdentifierField = "objectID"

var (
	ErrMissingIdentifier = errors.New("record: missing objectID")
	ErrInvalidRecord     = errors.New("record: input is not a JSON object")
)

// CanonicalRecord is the normalized, index-ready product record.
//
// Currency is present only when Price could not be expressed in the base
// currency; in that case Price is null. Stock is set only by the inventory
// pipeline.
type CanonicalRecord struct {
	ObjectID     string            `json:"objectID"`
	Name         string            `json:"name"`
	Description  Nullable[string]  `json:"description"`
	Price        Nullable[float64] `json:"price"`
	Currency     string            `json:"currency,omitempty"`
	Manufacturer Nullable[string]  `json:"manufacturer"`
	Category     Nullable[string]  `json:"category"`
	InStock      bool              `json:"inStock"`
	Weight       Nullable[float64] `json:"weight"`
	Dimensions   Nullable[string]  `json:"dimensions"`
	Color        Nullable[string]  `json:"color"`
	Stock        StockTier         `json:"stock,omitempty"`
}

// Flagged reports whether the record carries an unconverted price.
func (r CanonicalRecord) Flagged() bool {
	return r.Currency != "" && !r.Price.Valid
}

// Extraction is the shape the completion service must return. It has no
// identifier; price is always numeric and currency always present.
type Extraction struct {
	Name         string            `json:"name"`
	Description  Nullable[string]  `json:"description"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency"`
	Manufacturer Nullable[string]  `json:"manufacturer"`
	Category     Nullable[string]  `json:"category"`
	InStock      bool              `json:"inStock"`
	Weight       Nullable[float64] `json:"weight"`
	Dimensions   Nullable[string]  `json:"dimensions"`
	Color        Nullable[string]  `json:"color"`
}

// Canonical builds a canonical candidate for objectID. Currency is carried
// verbatim; the currency normalizer decides whether it survives.
func (e Extraction) Canonical(objectID string) CanonicalRecord {
	return CanonicalRecord{
		ObjectID:     objectID,
		Name:         e.Name,
		Description:  e.Description,
		Price:        Of(e.Price),
		Currency:     e.Currency,
		Manufacturer: e.Manufacturer,
		Category:     e.Category,
		InStock:      e.InStock,
		Weight:       e.Weight,
		Dimensions:   e.Dimensions,
		Color:        e.Color,
	}
}

// RawRecord is an arbitrary JSON object from an upstream source.
type RawRecord json.RawMessage

func (r RawRecord) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return jsonNull, nil
	}
	return r, nil
}

func (r *RawRecord) UnmarshalJSON(b []byte) error {
	*r = append((*r)[:0], b...)
	return nil
}

// ObjectID returns the record identifier verbatim. String identifiers are
// returned unquoted; any other scalar is returned as its literal JSON text.
func (r RawRecord) ObjectID() (string, error) {
	if !gjson.ValidBytes(r) || !gjson.ParseBytes(r).IsObject() {
		return "", ErrInvalidRecord
	}
	res := gjson.GetBytes(r, IdentifierField)
	switch res.Type {
	case gjson.String:
		if res.Str == "" {
			return "", ErrMissingIdentifier
		}
		return res.Str, nil
	case gjson.Number, gjson.True, gjson.False:
		return res.Raw, nil
	default:
		return "", ErrMissingIdentifier
	}
}

// Attributes is a loosely-typed field set keyed by field name.
type Attributes map[string]json.RawMessage

// DecodeAttributes parses a JSON object into Attributes.
func DecodeAttributes(raw []byte) (Attributes, error) {
	var out Attributes
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrInvalidRecord
	}
	return out, nil
}
