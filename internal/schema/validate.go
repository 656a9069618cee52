package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"catalognorm/internal/record"
)

// SchemaViolationError reports output that does not conform to a schema.
type SchemaViolationError struct {
	Schema  string
	Reasons []string
	Err     error
}

func (e *SchemaViolationError) Error() string {
	var b strings.Builder
	b.WriteString("schema violation (")
	b.WriteString(e.Schema)
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Reasons) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Reasons, "; "))
	}
	return b.String()
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

// Validator checks JSON documents against a compiled schema.
type Validator struct {
	name     string
	compiled *jsonschema.Schema
}

// NewValidator compiles doc into a Validator.
func NewValidator(name string, doc map[string]any) (*Validator, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	compiled, err := jsonschema.NewCompiler().Compile(b)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Validator{name: name, compiled: compiled}, nil
}

// Validate parses raw and checks it against the schema.
func (v *Validator) Validate(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &SchemaViolationError{Schema: v.name, Err: err}
	}
	return v.ValidateValue(doc)
}

// ValidateValue checks an already decoded document.
func (v *Validator) ValidateValue(doc any) error {
	res := v.compiled.Validate(doc)
	if res.Valid {
		return nil
	}
	reasons := make([]string, 0, len(res.Errors))
	for key, e := range res.Errors {
		reasons = append(reasons, key+": "+e.Error())
	}
	sort.Strings(reasons)
	return &SchemaViolationError{Schema: v.name, Reasons: reasons}
}

var (
	extractionOnce = sync.OnceValues(func() (*Validator, error) {
		return NewValidator("extraction", extractionLocal())
	})
	canonicalOnce = sync.OnceValues(func() (*Validator, error) {
		return NewValidator("canonical", Canonical())
	})
)

// ParseExtraction canonicalizes the currency code of completion output,
// validates the result and decodes it.
func ParseExtraction(raw []byte) (record.Extraction, error) {
	var out record.Extraction
	v, err := extractionOnce()
	if err != nil {
		return out, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, &SchemaViolationError{Schema: v.name, Err: err}
	}
	if m, ok := doc.(map[string]any); ok {
		if code, ok := m["currency"].(string); ok {
			m["currency"] = CanonicalCurrency(code)
		}
	}
	if err := v.ValidateValue(doc); err != nil {
		return out, err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, &SchemaViolationError{Schema: v.name, Err: err}
	}
	return out, nil
}

// ParseCanonical validates a serialized canonical record and decodes it.
func ParseCanonical(raw []byte) (record.CanonicalRecord, error) {
	var out record.CanonicalRecord
	v, err := canonicalOnce()
	if err != nil {
		return out, err
	}
	if err := v.Validate(raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &SchemaViolationError{Schema: v.name, Err: err}
	}
	return out, nil
}

// CheckCanonical serializes rec and validates it against the canonical schema.
func CheckCanonical(rec record.CanonicalRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	v, err := canonicalOnce()
	if err != nil {
		return err
	}
	return v.Validate(b)
}
