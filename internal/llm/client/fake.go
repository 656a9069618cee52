package llmclient

import (
	"context"
	"encoding/json"
	"strings"
)

// FakeClient answers extraction requests offline by copying recognizable
// fields from the input. It applies the same default policy the instruction
// asks of real models, which makes it useful for local runs and tests.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var in map[string]any
	if err := json.Unmarshal(req.Input, &in); err != nil {
		return nil, &RefusalError{Provider: "fake", Reason: "input is not a JSON object"}
	}
	str := func(keys ...string) any {
		for _, k := range keys {
			if s, ok := in[k].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		return nil
	}
	num := func(keys ...string) any {
		for _, k := range keys {
			if n, ok := in[k].(float64); ok {
				return n
			}
		}
		return nil
	}

	out := map[string]any{
		"name":         str("name", "title", "productName"),
		"description":  str("description", "desc"),
		"price":        num("price", "amount"),
		"currency":     str("currency", "currencyCode"),
		"manufacturer": str("manufacturer", "brand", "vendor"),
		"category":     str("category", "type"),
		"inStock":      true,
		"weight":       num("weight", "weightKg"),
		"dimensions":   str("dimensions", "size"),
		"color":        str("color", "colour"),
	}
	if out["name"] == nil {
		out["name"] = ""
	}
	if out["price"] == nil {
		out["price"] = 0.0
	}
	if out["currency"] == nil {
		out["currency"] = "USD"
	}
	if v, ok := in["inStock"].(bool); ok {
		out["inStock"] = v
	}
	if c, ok := out["color"].(string); ok {
		out["color"] = strings.ToLower(c)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
