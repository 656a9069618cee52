// Package schema is the declarative definition of the canonical product
// record. It backs both the response-format constraint sent to the
// completion service and the validation of everything the pipelines emit.
package schema

import (
	"slices"
	"strings"

	"catalognorm/internal/record"
)

const (
	// BaseCurrency is the currency every price is normalized to.
	BaseCurrency = "USD"
	// DefaultCurrency is assumed when the input has no currency data.
	DefaultCurrency = "USD"
	// DefaultInStock is assumed when the input has no availability data.
	DefaultInStock = true
	// MaxDescriptionSentences bounds the extracted description.
	MaxDescriptionSentences = 3

	// ResponseName names the response format sent to the completion service.
	ResponseName = "smart_home_hub"
)

// Instruction is the system instruction sent with every extraction request.
// The default policy it states mirrors the constants above.
const Instruction = "You are standardizing a product catalog made up of product records from many sources. " +
	"Pick out information from the inputted JSON and use it to create the output JSON according to the schema. " +
	"Do not make up any answers from your knowledge - only use information from the input. " +
	"Do not summarize any information. " +
	"If the input has no currency data, use USD. " +
	"If the input has no stock availability data, set inStock to true. " +
	"For every other field that can be null, use null when the input has no data for it."

// Field describes one property of the canonical record.
type Field struct {
	Name        string
	Types       []string
	Description string
	Enum        []string
	Pattern     string

	// Extract marks fields the completion service must return.
	Extract bool
	// Required marks fields that must be present on pipeline output.
	Required bool
}

// Nullable reports whether null is an accepted value.
func (f Field) Nullable() bool { return slices.Contains(f.Types, "null") }

func (f Field) property(types []string) map[string]any {
	p := map[string]any{}
	if len(types) == 1 {
		p["type"] = types[0]
	} else {
		p["type"] = slices.Clone(types)
	}
	if f.Description != "" {
		p["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		p["enum"] = slices.Clone(f.Enum)
	}
	if f.Pattern != "" {
		p["pattern"] = f.Pattern
	}
	return p
}

// Fields is the canonical field table, in output order.
var Fields = []Field{
	{Name: record.IdentifierField, Types: []string{"string"}, Required: true},
	{Name: "name", Types: []string{"string"}, Extract: true, Required: true,
		Description: "Name of the product."},
	{Name: "description", Types: []string{"string", "null"}, Extract: true, Required: true,
		Description: "Description of the product. Can be up to three sentences."},
	{Name: "price", Types: []string{"number", "null"}, Extract: true, Required: true,
		Description: "Price of the product, in the original currency."},
	{Name: "currency", Types: []string{"string"}, Extract: true, Pattern: "^[A-Za-z]{3}$",
		Description: "Currency for the price, e.g. USD. Use three-letter abbreviations. If there is no data, default to " + DefaultCurrency + "."},
	{Name: "manufacturer", Types: []string{"string", "null"}, Extract: true, Required: true,
		Description: "Manufacturer of the product."},
	{Name: "category", Types: []string{"string", "null"}, Extract: true, Required: true,
		Description: "Category of the product."},
	{Name: "inStock", Types: []string{"boolean"}, Extract: true, Required: true,
		Description: "Boolean representing whether the product is in stock. If there is no data, default to true."},
	{Name: "weight", Types: []string{"number", "null"}, Extract: true, Required: true,
		Description: "Weight of the product in kilograms."},
	{Name: "dimensions", Types: []string{"string", "null"}, Extract: true, Required: true,
		Description: "Dimensions of the product. Do not try to standardize this field."},
	{Name: "color", Types: []string{"string", "null"}, Extract: true, Required: true,
		Description: "Color of the product, in all lowercase."},
	{Name: "stock", Types: []string{"string"},
		Enum: []string{string(record.StockOut), string(record.StockLow), string(record.StockIn)}},
}

// FieldNames returns the closed set of canonical field names.
func FieldNames() []string {
	out := make([]string, 0, len(Fields))
	for _, f := range Fields {
		out = append(out, f.Name)
	}
	return out
}

// IsCanonicalField reports whether name belongs to the canonical field set.
func IsCanonicalField(name string) bool {
	for _, f := range Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Extraction returns the JSON Schema sent to the completion service. Every
// property is required and price is always numeric. Strict response formats
// reject pattern, so the currency code shape is checked locally.
func Extraction() map[string]any {
	return extraction(false)
}

// extractionLocal is Extraction plus the patterns the provider cannot take.
func extractionLocal() map[string]any {
	return extraction(true)
}

func extraction(withPattern bool) map[string]any {
	props := map[string]any{}
	var required []string
	for _, f := range Fields {
		if !f.Extract {
			continue
		}
		types := f.Types
		if f.Name == "price" {
			types = []string{"number"}
		}
		p := f.property(types)
		if !withPattern {
			delete(p, "pattern")
		}
		props[f.Name] = p
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// Canonical returns the JSON Schema for pipeline output. A present currency
// requires a null price.
func Canonical() map[string]any {
	props := map[string]any{}
	var required []string
	for _, f := range Fields {
		props[f.Name] = f.property(f.Types)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
		"if":                   map[string]any{"required": []string{"currency"}},
		"then": map[string]any{
			"properties": map[string]any{"price": map[string]any{"type": "null"}},
		},
	}
}

// CanonicalCurrency trims and upper-cases a currency code. An empty code
// becomes DefaultCurrency.
func CanonicalCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}

// IsBase reports whether code names the base currency.
func IsBase(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), BaseCurrency)
}
